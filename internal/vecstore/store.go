package vecstore

import "context"

// Entry is one embedded chunk stored under a collection. Collections
// partition the table per subject so a search never crosses subjects.
type Entry struct {
	ID         string
	MaterialID string
	Content    string
	Metadata   map[string]string
	Embedding  []float32
}

type SearchResult struct {
	Entry
	Score float64 // cosine similarity, higher is closer
}

type Store interface {
	Add(ctx context.Context, collection string, entries []Entry) error
	// QuerySimilar returns the topK nearest entries by cosine similarity.
	QuerySimilar(ctx context.Context, collection string, embedding []float32, topK int) ([]SearchResult, error)
	// QueryMMR over-fetches fetchK nearest entries and reranks them for
	// diversity so the result set does not collapse onto one passage.
	QueryMMR(ctx context.Context, collection string, embedding []float32, topK int, lambda float64, fetchK int) ([]SearchResult, error)
	DeleteByMaterial(ctx context.Context, collection, materialID string) error
	DropCollection(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int, error)
}

// CollectionForSubject names the per-subject partition.
func CollectionForSubject(subjectID string) string {
	return "subject_" + subjectID
}
