package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cogit/internal/embedding"
	"cogit/internal/repository"
	"cogit/internal/storage"
	"cogit/shared/utils"

	"github.com/dgraph-io/badger/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// embedder wires the embedding queue to a repository for one command.
type embedder struct {
	db      *badger.DB
	queue   *embedding.Queue
	timeout time.Duration
	logger  *zap.Logger
}

func startEmbedder(a *app) (*embedder, error) {
	cfg := a.repo.Config.Embeddings
	if cfg.APIKey == "" {
		return nil, embedding.ErrNoAPIKey
	}

	db, err := storage.OpenDB(a.repo.Path(repository.EmbeddingsDir))
	if err != nil {
		return nil, err
	}

	client := embedding.NewClient(cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.Timeout)
	proc := embedding.NewProcessor(client, embedding.NewIndexStore(db), embedding.NewFilter(cfg.Extensions), a.logger.Logger)
	queue := embedding.NewQueue(proc, cfg.QueueSize, a.logger.Logger)
	queue.OnDone = func(job embedding.Job, idx *embedding.Index, err error) {
		if err != nil {
			color.New(color.FgYellow).Printf("embeddings skipped for %s: %v\n", utils.ShortHash(job.Event.Hash), err)
			return
		}
		fmt.Printf("embedded %d files for %s (%d tokens)\n", len(idx.Files), utils.ShortHash(idx.CommitHash), idx.TotalTokens)
	}
	a.repo.Subscribe(queue)

	return &embedder{db: db, queue: queue, timeout: cfg.Timeout, logger: a.logger.Logger}, nil
}

// Close waits for queued jobs, giving up after twice the request timeout.
func (e *embedder) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*e.timeout)
	defer cancel()

	if err := e.queue.Close(ctx); err != nil {
		e.logger.Warn("embedding queue did not drain", zap.Error(err))
	}
	if err := e.db.Close(); err != nil {
		e.logger.Warn("closing embeddings database", zap.Error(err))
	}
}

func embeddingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Inspect the embeddings computed for commits",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List commits that have embeddings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, closeDB, err := openIndex()
			if err != nil {
				return err
			}
			defer a.Close()
			defer closeDB()

			all, err := store.All()
			if err != nil {
				return fmt.Errorf("listing embeddings: %w", err)
			}
			if len(all) == 0 {
				fmt.Println("No embeddings found")
				return nil
			}

			for _, idx := range all {
				fmt.Printf("%s  %s  %d files  %d tokens  %dms\n",
					utils.ShortHash(idx.CommitHash),
					idx.CreatedAt.Local().Format(time.RFC3339),
					len(idx.Files),
					idx.TotalTokens,
					idx.ProcessingTimeMS,
				)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <commit>",
		Short: "Show the per-file embeddings of a commit",
		Long:  `Show the per-file embeddings of a commit. A unique hash prefix is accepted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, closeDB, err := openIndex()
			if err != nil {
				return err
			}
			defer a.Close()
			defer closeDB()

			hash, err := resolveIndexed(store, args[0])
			if err != nil {
				return err
			}
			idx, err := store.Load(hash)
			if err != nil {
				return err
			}

			fmt.Printf("commit %s\n", idx.CommitHash)
			fmt.Printf("%d files, %d tokens, %dms\n\n", len(idx.Files), idx.TotalTokens, idx.ProcessingTimeMS)
			for _, f := range idx.Files {
				fmt.Printf("%-8s %s  dim=%d  %s\n", f.ChangeType, utils.ShortHash(f.ContentHash), len(f.Vector), f.Path)
			}
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <commit>",
		Short: "Delete the embeddings of a commit",
		Long:  `Delete the embeddings of a commit so the next embedding run recomputes them.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, closeDB, err := openIndex()
			if err != nil {
				return err
			}
			defer a.Close()
			defer closeDB()

			hash, err := resolveIndexed(store, args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(hash); err != nil {
				return fmt.Errorf("deleting embeddings: %w", err)
			}
			fmt.Printf("Deleted embeddings for %s\n", utils.ShortHash(hash))
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)
	cmd.AddCommand(rmCmd)
	return cmd
}

func openIndex() (*app, *embedding.IndexStore, func(), error) {
	a, err := openApp()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := storage.OpenDB(a.repo.Path(repository.EmbeddingsDir))
	if err != nil {
		a.Close()
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("closing embeddings database", zap.Error(err))
		}
	}
	return a, embedding.NewIndexStore(db), closeDB, nil
}

// resolveIndexed expands a hash prefix to the one indexed commit it names.
func resolveIndexed(store *embedding.IndexStore, prefix string) (string, error) {
	hashes, err := store.List()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, h := range hashes {
		if strings.HasPrefix(h, prefix) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w %s", embedding.ErrNoIndex, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", errors.New("ambiguous commit prefix " + prefix)
	}
}
