// cmd/cogit/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogit/internal/config"
	"cogit/internal/logging"
	"cogit/internal/repository"
	"cogit/internal/validation"
	"cogit/internal/workspace"
	"cogit/shared/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cogit",
	Short: "Cogit is a local single-branch version control system",
	Long: `Cogit tracks a flat working directory in a content-addressed object store,
records snapshots as a linear chain of commits and diffs files line by line.`,
	SilenceUsage: true,
}

var workDir string

// app bundles an opened repository with the logger built from its config.
type app struct {
	repo   *repository.Repository
	logger *logging.Logger
}

// openApp finds the repository containing the working directory, loads
// its config and opens it with a logger at the configured level.
func openApp() (*app, error) {
	start := workDir
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		start = cwd
	}

	root, err := workspace.FindRoot(start)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repository.ConfigPath(root))
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	repo, err := repository.Open(root, logger.Logger)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	return &app{repo: repo, logger: logger}, nil
}

func (a *app) Close() {
	a.repo.Close()
	a.logger.Sync()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Run as if started in this directory")

	var initCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty Cogit repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := workDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting current directory: %w", err)
				}
				dir = cwd
			}

			logger, err := logging.NewLogger(config.Default().Log.Level)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logger.Sync()

			_, statErr := os.Stat(filepath.Join(dir, validation.MetaDir))
			existed := statErr == nil

			repo, err := repository.Init(dir, logger.Logger)
			if err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}
			defer repo.Close()

			if existed {
				fmt.Println("Reinitialized existing Cogit repository in", repo.MetaDir)
			} else {
				fmt.Println("Initialized empty Cogit repository in", repo.MetaDir)
			}
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage file contents for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.repo.Add(args...)
			if err != nil {
				return fmt.Errorf("staging files: %w", err)
			}

			green := color.New(color.FgGreen).SprintFunc()
			for _, e := range entries {
				fmt.Printf("\t%s %s (%s, %d bytes)\n", green("+"), e.Path, utils.ShortHash(e.ContentHash), e.Size)
			}
			return nil
		},
	}

	var rmCmd = &cobra.Command{
		Use:   "rm --cached <paths...>",
		Short: "Remove paths from the staging area",
		Long: `Remove paths from the staging area. Working files are never deleted,
so --cached is required.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cached, _ := cmd.Flags().GetBool("cached")
			if !cached {
				return errors.New("cogit rm only unstages; pass --cached")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.repo.Unstage(args...)
			if err != nil {
				return fmt.Errorf("unstaging files: %w", err)
			}
			if len(removed) == 0 {
				fmt.Println("Nothing was staged at the given paths")
				return nil
			}
			for _, p := range removed {
				fmt.Printf("unstaged '%s'\n", p)
			}
			return nil
		},
	}
	rmCmd.Flags().Bool("cached", false, "Only remove from the staging area")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			oneline, _ := cmd.Flags().GetBool("oneline")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			commits, err := a.repo.Log()
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(commits) == 0 {
				fmt.Println("No commits yet")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for i, c := range commits {
				if oneline {
					fmt.Printf("%s %s\n", yellow(utils.ShortHash(c.Hash)), firstLine(c.Message))
					continue
				}
				if i > 0 {
					fmt.Println()
				}
				fmt.Println(yellow("commit " + c.Hash))
				fmt.Printf("Date:   %s\n\n", c.Timestamp.Local().Format("Mon Jan 2 15:04:05 2006 -0700"))
				for _, line := range strings.Split(c.Message, "\n") {
					fmt.Printf("    %s\n", line)
				}
			}
			return nil
		},
	}
	logCmd.Flags().Bool("oneline", false, "Show each commit on a single line")

	var catFileCmd = &cobra.Command{
		Use:   "cat-file <hash>",
		Short: "Print the raw content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.repo.Load(args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	var lsTreeCmd = &cobra.Command{
		Use:   "ls-tree [commit]",
		Short: "List the files recorded by a commit",
		Long:  `List the files recorded by a commit. Defaults to the head commit.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			hash := ""
			if len(args) == 1 {
				hash = args[0]
			} else {
				head, ok, err := a.repo.Head()
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("no commits yet")
				}
				hash = head
			}

			c, err := a.repo.ReadCommit(hash)
			if err != nil {
				return err
			}
			tree, err := a.repo.ReadTree(c.TreeHash)
			if err != nil {
				return err
			}
			for _, e := range tree.Entries {
				fmt.Printf("file %s\t%s\n", e.Hash, e.Name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(commitCmd())
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(catFileCmd)
	rootCmd.AddCommand(lsTreeCmd)
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(embeddingsCmd())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
