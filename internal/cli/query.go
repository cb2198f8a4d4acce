package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"krakengpt/internal/logger"
	"krakengpt/internal/usecase"
)

var (
	queryProject string
	queryText    string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Probe retrieval for a project from the terminal",
	Example: `  krakengpt query -p manuals -q "procedura di avvio"`,
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryProject, "project", "p", "", "project name")
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text")
	queryCmd.MarkFlagRequired("project")
	queryCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	projects, err := st.ListProjects()
	if err != nil {
		return err
	}
	var projectID int64
	for _, p := range projects {
		if p.Name == queryProject {
			projectID = p.ID
			break
		}
	}
	if projectID == 0 {
		return fmt.Errorf("project not found: %s", queryProject)
	}

	retriever := usecase.NewRetriever(st, embedder, logger.NewNop(), cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
	context, err := retriever.Search(queryText, projectID)
	if err != nil {
		return err
	}
	if context == "" {
		fmt.Println("No relevant chunks found.")
		return nil
	}
	fmt.Println(context)
	return nil
}
