package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/examgen/examgen/internal/ai"
	"github.com/examgen/examgen/internal/chunker"
	"github.com/examgen/examgen/internal/extract"
	"github.com/examgen/examgen/internal/filestore"
	"github.com/examgen/examgen/internal/model"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
	"github.com/examgen/examgen/internal/repo"
	"github.com/examgen/examgen/internal/retriever"
	"github.com/examgen/examgen/internal/vecstore"
)

var supportedFormats = map[string]bool{
	"pdf": true, "md": true, "markdown": true, "txt": true, "text": true,
}

// IndexingService owns the material lifecycle: upload to the file store,
// then extract, chunk, embed and load into the vector store. Re-indexing
// drops the material's existing vectors first so stale chunks never linger.
type IndexingService struct {
	materials *repo.MaterialRepo
	files     filestore.Store
	embedder  ai.IEmbedder
	vec       vecstore.Store
	chunks    *chunker.Chunker
}

func NewIndexingService(materials *repo.MaterialRepo, files filestore.Store, embedder ai.IEmbedder, vec vecstore.Store, chunks *chunker.Chunker) *IndexingService {
	return &IndexingService{
		materials: materials,
		files:     files,
		embedder:  embedder,
		vec:       vec,
		chunks:    chunks,
	}
}

func (s *IndexingService) Upload(ctx context.Context, subjectID, topicID, title, filename string, r io.Reader, size int64) (*model.Material, error) {
	format := extract.FormatFromFilename(filename)
	if !supportedFormats[format] {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFile, filename)
	}
	key := newID() + "." + format
	if err := s.files.Save(ctx, key, r, size); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	now := time.Now().Unix()
	material := &model.Material{
		ID:        newID(),
		SubjectID: subjectID,
		TopicID:   topicID,
		Title:     title,
		FileKey:   key,
		Format:    format,
		State:     model.MaterialStateUploaded,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *IndexingService) Get(ctx context.Context, materialID string) (*model.Material, error) {
	return s.materials.Get(ctx, materialID)
}

func (s *IndexingService) ListBySubject(ctx context.Context, subjectID string) ([]*model.Material, error) {
	return s.materials.ListBySubject(ctx, subjectID)
}

// Index runs the pipeline for one material. Indexed and failed materials
// may be re-indexed; a material already being indexed is rejected.
func (s *IndexingService) Index(ctx context.Context, materialID string) error {
	material, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	switch material.State {
	case model.MaterialStateUploaded:
		claimed, err := s.materials.MarkIndexing(ctx, materialID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return appErr.ErrBusy
		}
	case model.MaterialStateIndexed, model.MaterialStateFailed:
		if err := s.materials.Update(ctx, materialID, map[string]interface{}{
			"state": model.MaterialStateIndexing,
			"error": "",
			"mtime": now,
		}); err != nil {
			return err
		}
	default:
		return appErr.ErrBusy
	}

	chunkCount, pageCount, err := s.doIndex(ctx, material)
	if err != nil {
		logutil.GetLogger(ctx).Error("indexing failed",
			zap.String("material_id", materialID),
			zap.Error(err),
		)
		_ = s.materials.Update(ctx, materialID, map[string]interface{}{
			"state": model.MaterialStateFailed,
			"error": err.Error(),
			"mtime": time.Now().Unix(),
		})
		return err
	}
	logutil.GetLogger(ctx).Info("material indexed",
		zap.String("material_id", materialID),
		zap.Int("chunks", chunkCount),
		zap.Int("pages", pageCount),
	)
	return s.materials.Update(ctx, materialID, map[string]interface{}{
		"state":       model.MaterialStateIndexed,
		"chunk_count": chunkCount,
		"page_count":  pageCount,
		"error":       "",
		"mtime":       time.Now().Unix(),
	})
}

func (s *IndexingService) doIndex(ctx context.Context, material *model.Material) (int, int, error) {
	rc, err := s.files.Open(ctx, material.FileKey)
	if err != nil {
		return 0, 0, fmt.Errorf("open material file: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return 0, 0, fmt.Errorf("read material file: %w", err)
	}
	result, err := extract.Extract(bytes.NewReader(data), int64(len(data)), material.Format)
	if err != nil {
		return 0, 0, err
	}
	chunks := s.chunks.Chunk(result.Pages, chunker.Meta{
		SubjectID:  material.SubjectID,
		TopicID:    material.TopicID,
		MaterialID: material.ID,
		Source:     material.Title,
	})
	collection := vecstore.CollectionForSubject(material.SubjectID)
	if err := s.vec.DeleteByMaterial(ctx, collection, material.ID); err != nil {
		return 0, 0, fmt.Errorf("drop previous vectors: %w", err)
	}
	if len(chunks) == 0 {
		return 0, result.PageCount(), nil
	}
	entries := make([]vecstore.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text, retriever.TaskTypeDocument)
		if err != nil {
			return 0, 0, fmt.Errorf("embed chunk: %w", err)
		}
		entries = append(entries, vecstore.Entry{
			ID:         chunk.ID,
			MaterialID: material.ID,
			Content:    chunk.Text,
			Metadata: map[string]string{
				"topic_id": chunk.TopicID,
				"page":     chunk.PageLabel,
				"source":   chunk.Source,
				"hash":     chunk.Hash,
			},
			Embedding: embedding,
		})
	}
	if err := s.vec.Add(ctx, collection, entries); err != nil {
		return 0, 0, fmt.Errorf("store vectors: %w", err)
	}
	return len(entries), result.PageCount(), nil
}

// IndexPending picks up uploaded materials that never got an explicit index
// call, e.g. after a crash between upload and index.
func (s *IndexingService) IndexPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.materials.ListByState(ctx, model.MaterialStateUploaded, limit)
	if err != nil {
		return 0, err
	}
	indexed := 0
	for _, material := range pending {
		if err := s.Index(ctx, material.ID); err != nil {
			logutil.GetLogger(ctx).Warn("pending material failed to index",
				zap.String("material_id", material.ID),
				zap.Error(err),
			)
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (s *IndexingService) Delete(ctx context.Context, materialID string) error {
	material, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return err
	}
	collection := vecstore.CollectionForSubject(material.SubjectID)
	if err := s.vec.DeleteByMaterial(ctx, collection, material.ID); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, material.FileKey); err != nil {
		logutil.GetLogger(ctx).Warn("failed to delete stored file",
			zap.String("file_key", material.FileKey),
			zap.Error(err),
		)
	}
	return s.materials.Delete(ctx, materialID)
}
