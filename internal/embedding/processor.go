package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"cogit/internal/logging"
	"cogit/internal/object"
	"cogit/internal/repository"

	"go.uber.org/zap"
)

// Processor computes the embedding index of a commit.
type Processor struct {
	embedder Embedder
	index    *IndexStore
	filter   *Filter
	logger   *zap.Logger
}

func NewProcessor(embedder Embedder, index *IndexStore, filter *Filter, logger *zap.Logger) *Processor {
	return &Processor{
		embedder: embedder,
		index:    index,
		filter:   filter,
		logger:   logging.OrNop(logger),
	}
}

// Process embeds every code file of the commit and saves the index.
// Files whose content is unchanged since the parent reuse the parent's
// vectors. A file that fails is logged and left out. A commit that is
// already indexed is returned as stored.
func (p *Processor) Process(ctx context.Context, ev repository.CommitEvent) (*Index, error) {
	start := time.Now()

	indexed, err := p.index.Has(ev.Hash)
	if err != nil {
		return nil, err
	}
	if indexed {
		p.logger.Debug("commit already indexed", zap.String("commit", ev.Hash))
		return p.index.Load(ev.Hash)
	}

	parentFiles, reuse := p.parentState(ev)

	idx := &Index{CommitHash: ev.Hash}
	for _, entry := range ev.Tree.Entries {
		if !p.filter.IsCodeFile(entry.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changeType := Modified
		if _, ok := parentFiles[entry.Name]; !ok {
			changeType = Added
		}

		fe, tokens, err := p.embedFile(ctx, ev.Blobs, entry, reuse)
		if err != nil {
			if errors.Is(err, ErrNoAPIKey) {
				return nil, err
			}
			p.logger.Warn("skipping file",
				zap.String("commit", ev.Hash),
				zap.String("path", entry.Name),
				zap.Error(err))
			continue
		}
		fe.ChangeType = changeType
		idx.Files = append(idx.Files, fe)
		idx.TotalTokens += tokens
	}

	idx.ProcessingTimeMS = time.Since(start).Milliseconds()
	idx.CreatedAt = time.Now().UTC()

	if err := p.index.Save(idx); err != nil {
		return nil, err
	}

	p.logger.Info("stored embeddings",
		zap.String("commit", ev.Hash),
		zap.Int("files", len(idx.Files)),
		zap.Int("tokens", idx.TotalTokens))
	return idx, nil
}

func (p *Processor) embedFile(ctx context.Context, blobs repository.BlobLoader, entry object.TreeEntry, reuse map[string][]float32) (FileEmbedding, int, error) {
	data, err := blobs.Load(entry.Hash)
	if err != nil {
		return FileEmbedding{}, 0, fmt.Errorf("loading blob: %w", err)
	}
	if !utf8.Valid(data) {
		return FileEmbedding{}, 0, fmt.Errorf("content is not UTF-8 text")
	}

	fe := FileEmbedding{
		Path:        entry.Name,
		ContentHash: entry.Hash,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}

	if vec, ok := reuse[entry.Hash]; ok {
		fe.Vector = vec
		return fe, 0, nil
	}
	if len(data) == 0 {
		return FileEmbedding{}, 0, fmt.Errorf("empty file")
	}

	vec, tokens, err := p.embedder.Embed(ctx, string(data))
	if err != nil {
		return FileEmbedding{}, 0, err
	}
	fe.Vector = vec
	return fe, tokens, nil
}

// parentState returns the parent's file set and the vectors already
// computed for it, keyed by content hash. Both are empty for a root
// commit or when the parent cannot be read.
func (p *Processor) parentState(ev repository.CommitEvent) (map[string]string, map[string][]float32) {
	files := map[string]string{}
	reuse := map[string][]float32{}
	if ev.Parent == "" {
		return files, reuse
	}

	data, err := ev.Blobs.Load(ev.Parent)
	if err != nil {
		p.logger.Debug("parent commit unavailable", zap.String("parent", ev.Parent), zap.Error(err))
		return files, reuse
	}
	parent, err := object.DecodeCommit(ev.Parent, data)
	if err != nil {
		return files, reuse
	}
	treeData, err := ev.Blobs.Load(parent.TreeHash)
	if err != nil {
		return files, reuse
	}
	tree, err := object.DecodeTree(treeData)
	if err != nil {
		return files, reuse
	}
	files = tree.Files()

	if prev, err := p.index.Load(ev.Parent); err == nil {
		for _, f := range prev.Files {
			reuse[f.ContentHash] = f.Vector
		}
	}
	return files, reuse
}
