package model

const (
	MaterialStateUploaded = "uploaded"
	MaterialStateIndexing = "indexing"
	MaterialStateIndexed  = "indexed"
	MaterialStateFailed   = "failed"
)

// Material is an uploaded course document (pdf/markdown/plain text) that
// chunks are extracted from. Re-indexing a material drops and recreates all
// of its vector entries.
type Material struct {
	ID         string `json:"id"`
	SubjectID  string `json:"subject_id"`
	TopicID    string `json:"topic_id,omitempty"`
	Title      string `json:"title"`
	FileKey    string `json:"file_key"`
	Format     string `json:"format"`
	State      string `json:"state"`
	ChunkCount int    `json:"chunk_count"`
	PageCount  int    `json:"page_count"`
	Error      string `json:"error,omitempty"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}
