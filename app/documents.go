package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/daemon"
	"github.com/knowledgeai/knowledge-console/internal/knowledge"
)

// ReloginHint is printed when the API rejected the stored token.
const ReloginHint = "session expired, run 'knowledge-console login' again"

func init() { //nolint: gochecknoinits
	documentsCmd.Flags().StringVarP(&searchQuery, "search", "s", "", "Search the documents instead of listing them")
	documentsCmd.Flags().StringVar(&searchType, "type", string(knowledge.SearchSemantic), "Search type: semantic, keyword or hybrid")

	rootCmd.AddCommand(documentsCmd)
}

var (
	searchQuery string
	searchType  string

	documentsCmd = &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List or search the stored documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, func(ctx context.Context, core *daemon.Core) error {
				if !core.Session.Snapshot().Authenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
					return nil
				}

				err := printDocuments(ctx, cmd, core.Knowledge)
				if api.IsUnauthorized(err) {
					fmt.Fprintln(cmd.OutOrStdout(), ReloginHint)
					return nil
				}

				return err
			})
		},
	}
)

func printDocuments(ctx context.Context, cmd *cobra.Command, svc *knowledge.Service) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint: mnd

	if searchQuery != "" {
		results, err := svc.SearchDocuments(ctx, searchQuery, knowledge.SearchType(searchType))
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "ID\tTITLE\tSCORE")

		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", r.ID, r.Title, r.Score)
		}

		return w.Flush()
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tCREATED")

	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Title, d.FileType, d.CreatedAt)
	}

	return w.Flush()
}
