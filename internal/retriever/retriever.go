package retriever

import (
	"fmt"
	"strings"

	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/examgen/examgen/internal/ai"
	"github.com/examgen/examgen/internal/pkg/textsim"
	"github.com/examgen/examgen/internal/vecstore"
)

const (
	TaskTypeQuery    = "RETRIEVAL_QUERY"
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"

	// Passages shorter than this carry too little substance to anchor a
	// question and are dropped before assembly.
	minPassageChars = 100

	// Two passages whose opening 200 chars overlap beyond this are treated
	// as the same passage surfacing twice (page overlap regions).
	dedupPrefixRatio = 0.7
	dedupPrefixChars = 200

	mmrLambda = 0.5
)

type Passage struct {
	Text   string
	Page   string
	Source string
}

type Retriever struct {
	embedder ai.IEmbedder
	store    vecstore.Store
	client   *ai.Client
}

func New(embedder ai.IEmbedder, store vecstore.Store, client *ai.Client) *Retriever {
	return &Retriever{embedder: embedder, store: store, client: client}
}

// RetrieveContext assembles a grounding context block for one query.
// Retrieval failure is a soft condition: the caller proceeds with an empty
// context (and the prompt layer discloses that), so errors are logged and
// swallowed here.
func (r *Retriever) RetrieveContext(ctx context.Context, query, subjectID string, n int) string {
	passages := r.retrieve(ctx, query, subjectID, "", n)
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

func (r *Retriever) RetrieveForSubtopic(ctx context.Context, subtopic, subjectID, topicID string, n int) []Passage {
	return r.retrieve(ctx, subtopic, subjectID, topicID, n)
}

func (r *Retriever) retrieve(ctx context.Context, query, subjectID, topicID string, n int) []Passage {
	if n <= 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("subject_id", subjectID))
	embedding, err := r.embedder.Embed(ctx, query, TaskTypeQuery)
	if err != nil {
		logger.Warn("embed query failed, generating without context", zap.Error(err))
		return nil
	}
	collection := vecstore.CollectionForSubject(subjectID)
	// Over-fetch so the length and dedup filters still leave n passages.
	results, err := r.store.QueryMMR(ctx, collection, embedding, 2*n, mmrLambda, 4*n)
	if err != nil {
		logger.Warn("vector search failed, generating without context", zap.Error(err))
		return nil
	}
	var passages []Passage
	for _, res := range results {
		if topicID != "" && res.Metadata["topic_id"] != "" && res.Metadata["topic_id"] != topicID {
			continue
		}
		text := strings.TrimSpace(res.Content)
		if len(text) < minPassageChars {
			continue
		}
		if isNearDuplicate(text, passages) {
			continue
		}
		passages = append(passages, Passage{
			Text:   text,
			Page:   res.Metadata["page"],
			Source: res.Metadata["source"],
		})
		if len(passages) == n {
			break
		}
	}
	return passages
}

func isNearDuplicate(text string, existing []Passage) bool {
	for _, p := range existing {
		if textsim.PrefixRatio(text, p.Text, dedupPrefixChars) > dedupPrefixRatio {
			return true
		}
	}
	return false
}

// DiscoverSubtopics samples diverse passages for a topic and asks the model
// to name the distinct subtopics they cover. Any failure falls back to the
// topic name itself so generation always has at least one focus.
func (r *Retriever) DiscoverSubtopics(ctx context.Context, topic, subjectID string, count int) []string {
	fallback := []string{topic}
	if count <= 0 || r.client == nil {
		return fallback
	}
	passages := r.retrieve(ctx, topic, subjectID, "", count)
	if len(passages) == 0 {
		return fallback
	}
	var sb strings.Builder
	for i, p := range passages {
		excerpt := p.Text
		if len(excerpt) > 400 {
			excerpt = excerpt[:400]
		}
		fmt.Fprintf(&sb, "Excerpt %d:\n%s\n\n", i+1, excerpt)
	}
	prompt := fmt.Sprintf(`You are organizing course material for the topic "%s".
Below are excerpts from the course materials.

%s
List up to %d distinct subtopics these excerpts cover, as short noun phrases.
Respond with JSON: {"subtopics": ["...", "..."]}`, topic, sb.String(), count)

	parsed, _, err := r.client.GenerateJSON(ctx, prompt)
	if err != nil {
		logutil.GetLogger(ctx).Warn("subtopic discovery failed, using topic name", zap.Error(err))
		return fallback
	}
	raw, ok := parsed["subtopics"].([]interface{})
	if !ok || len(raw) == 0 {
		return fallback
	}
	var subtopics []string
	for _, item := range raw {
		name, ok := item.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		subtopics = append(subtopics, name)
		if len(subtopics) == count {
			break
		}
	}
	if len(subtopics) == 0 {
		return fallback
	}
	return subtopics
}
