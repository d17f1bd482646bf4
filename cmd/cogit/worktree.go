package main

import (
	"errors"
	"fmt"
	"strings"

	"cogit/internal/diff"
	cerrors "cogit/internal/errors"
	"cogit/internal/status"
	"cogit/shared/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func commitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record a snapshot of the working tree",
		Long: `Record a snapshot of every file in the working tree as a new commit on
main and clear the staging area.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")
			embed, _ := cmd.Flags().GetBool("embed")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var emb *embedder
			if embed || a.repo.Config.Embeddings.Enabled {
				emb, err = startEmbedder(a)
				if err != nil {
					color.New(color.FgYellow).Println("warning: embeddings disabled:", err)
				}
			}

			hash, err := a.repo.Commit(message)
			if err != nil {
				if emb != nil {
					emb.Close(cmd.Context())
				}
				return fmt.Errorf("committing: %w", err)
			}
			fmt.Printf("[main %s] %s\n", utils.ShortHash(hash), firstLine(message))

			if emb != nil {
				emb.Close(cmd.Context())
			}
			return nil
		},
	}
	cmd.Flags().StringP("message", "m", "", "Commit message")
	cmd.Flags().Bool("embed", false, "Compute embeddings for this commit even when disabled in config")
	cmd.MarkFlagRequired("message")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			head, ok, err := a.repo.Head()
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf("On branch main at %s\n", utils.ShortHash(head))
			} else {
				fmt.Println("On branch main\n\nNo commits yet")
			}

			statuses, err := a.repo.Status()
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			var staged, modified, untracked []status.FileStatus
			for _, fs := range statuses {
				switch fs.Classification {
				case status.Staged:
					staged = append(staged, fs)
				case status.Modified:
					modified = append(modified, fs)
				case status.Untracked:
					untracked = append(untracked, fs)
				}
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			blue := color.New(color.FgBlue).SprintFunc()

			if len(staged)+len(modified)+len(untracked) == 0 {
				fmt.Println("\nNothing to commit, working tree clean")
				return nil
			}
			fmt.Println()

			if len(staged) > 0 {
				fmt.Println("Changes to be committed:")
				fmt.Println("  (use \"cogit rm --cached <file>...\" to unstage)")
				for _, fs := range staged {
					fmt.Printf("\t%s %s\n", green("S"), fs.Path)
				}
				fmt.Println()
			}

			if len(modified) > 0 {
				fmt.Println("Changes not staged for commit:")
				fmt.Println("  (use \"cogit add <file>...\" to stage)")
				for _, fs := range modified {
					fmt.Printf("\t%s %s\n", yellow("M"), fs.Path)
				}
				fmt.Println()
			}

			if len(untracked) > 0 {
				fmt.Println("Untracked files:")
				fmt.Println("  (use \"cogit add <file>...\" to stage)")
				for _, fs := range untracked {
					fmt.Printf("\t%s %s\n", blue("?"), fs.Path)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [paths...]",
		Short: "Show changes between the head commit and the working tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			useLCS, _ := cmd.Flags().GetBool("lcs")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if useLCS || cmd.Flags().Changed("unified") {
				algorithm := a.repo.Differ.Algorithm()
				if useLCS {
					algorithm = diff.LCS
				}
				lines := a.repo.Config.Diff.Context
				if cmd.Flags().Changed("unified") {
					lines, _ = cmd.Flags().GetInt("unified")
				}
				a.repo.Differ = diff.NewEngine(lines, algorithm)
			}

			var diffs []*diff.FileDiff
			if len(args) == 0 {
				diffs, err = a.repo.DiffAll()
				if err != nil {
					return err
				}
			} else {
				for _, path := range args {
					fd, err := a.repo.Diff(path)
					if err != nil {
						if errors.Is(err, cerrors.ErrNoChanges) {
							continue
						}
						return fmt.Errorf("showing diff for %s: %w", path, err)
					}
					diffs = append(diffs, fd)
				}
			}

			for _, fd := range diffs {
				fmt.Printf("diff --cogit a/%s b/%s\n", fd.Path, fd.Path)
				if fd.ChangeType == diff.FileAdded {
					fmt.Println("new file")
				}
				printColoredDiff(fd.Patch)
			}
			return nil
		},
	}
	cmd.Flags().Bool("lcs", false, "Use the LCS algorithm, which can produce several hunks")
	cmd.Flags().IntP("unified", "U", 0, "Number of context lines")
	return cmd
}

func printColoredDiff(patch string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)
	bold := color.New(color.Bold)

	for _, line := range strings.Split(strings.TrimSuffix(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			bold.Println(line)
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}
