package model

// Chunk is a bounded span of source text produced by the chunker. Chunks
// are immutable once stored; they disappear only when their owning material
// is re-indexed.
type Chunk struct {
	ID         string `json:"id"`
	SubjectID  string `json:"subject_id"`
	TopicID    string `json:"topic_id,omitempty"`
	MaterialID string `json:"material_id"`
	Source     string `json:"source"`
	Text       string `json:"text"`
	PageLabel  string `json:"page,omitempty"` // "7" or "7-9" when a chunk straddles pages
	Hash       string `json:"hash"`
}
