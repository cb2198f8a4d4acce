package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"krakengpt/internal/adapter/chunker"
	"krakengpt/internal/adapter/fs"
	"krakengpt/internal/adapter/store"
	"krakengpt/internal/logger"
	"krakengpt/internal/usecase"
)

var (
	ingestIncludes []string
	ingestExcludes []string
	ingestJobs     int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <project> <path>",
	Short: "Ingest a directory of documents into a project",
	Long: `Walk a directory, chunk and embed every matching text file and store the
results under the named project. The project is created when it does not
exist yet.

Examples:
  krakengpt ingest manuals ./docs
  krakengpt ingest manuals ./docs --include "**/*.md" --exclude "drafts/**"`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestIncludes, "include", nil, "glob patterns of files to ingest")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "glob patterns of files to skip")
	ingestCmd.Flags().IntVar(&ingestJobs, "jobs", 4, "number of files ingested concurrently")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	projectName, path := args[0], args[1]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cfg := GetConfig()
	log := logger.NewNop()

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	projectID, err := findOrCreateProject(st, projectName)
	if err != nil {
		return err
	}

	files, err := fs.NewWalker(ingestIncludes, ingestExcludes).Walk(path)
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", path, err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	ingestor := usecase.NewIngestor(st, chunker.NewParagraphChunker(cfg.Retrieval.ChunkSize), embedder, log)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	var (
		mu       sync.Mutex
		ingested int
		chunks   int
		skipped  []string
	)

	g := new(errgroup.Group)
	g.SetLimit(ingestJobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			defer bar.Add(1)

			content, err := fs.ReadFile(file.Path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file.Path, err)
			}

			name, err := filepath.Rel(path, file.Path)
			if err != nil {
				name = filepath.Base(file.Path)
			}

			result, err := ingestor.Ingest(projectID, name, content)
			if err != nil {
				// Files the validator rejects are skipped, not fatal.
				if errors.Is(err, usecase.ErrDocumentTooShort) || errors.Is(err, usecase.ErrNotText) {
					mu.Lock()
					skipped = append(skipped, fmt.Sprintf("%s: %v", file.Path, err))
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("failed to ingest %s: %w", file.Path, err)
			}

			mu.Lock()
			ingested++
			chunks += result.ChunkCount
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats, err := st.ProjectStats(projectID)
	if err != nil {
		return err
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files ingested: %d\n", ingested)
	fmt.Printf("  Files skipped:  %d\n", len(skipped))
	fmt.Printf("  Chunks created: %d\n", chunks)
	fmt.Printf("  Project total:  %d documents, %d chunks\n", stats.DocumentCount, stats.ChunkCount)

	if len(skipped) > 0 {
		fmt.Printf("\nSkipped:\n")
		for _, s := range skipped {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}

func findOrCreateProject(st *store.BoltStore, name string) (int64, error) {
	projects, err := st.ListProjects()
	if err != nil {
		return 0, err
	}
	for _, p := range projects {
		if p.Name == name {
			return p.ID, nil
		}
	}

	id, err := st.CreateProject(name, "")
	if err != nil {
		return 0, fmt.Errorf("failed to create project %s: %w", name, err)
	}
	fmt.Printf("Created project %q (id %d)\n", name, id)
	return id, nil
}
