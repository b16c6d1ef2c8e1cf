// Command docsearchctl is a maintenance CLI that talks directly to the
// document database: list documents, delete them, wipe the index, and show
// counts.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arosell/go-docsearch/internal/adapter/store"
	"github.com/arosell/go-docsearch/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "docsearchctl",
		Short:         "Maintain the document search database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(listCmd(), deleteCmd(), clearCmd(), statsCmd(), auditCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore connects to Postgres using the same configuration as the server.
func openStore() (*store.PostgresStore, error) {
	cfg := config.Load()
	return store.NewPostgresStore(cfg.DatabaseDSN(), cfg.EmbeddingDimension)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all documents with passage counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			docs, err := s.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILENAME\tPASSAGES\tUPLOADED")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					d.ID, d.Filename, d.PassageCount, d.UploadedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete documents by id (passages cascade)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, id := range args {
				if err := s.DeleteDocument(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
			}
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete ALL documents and passages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the database without --yes")
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion of all documents")
	return cmd
}

func auditCmd() *cobra.Command {
	var limit int
	var action string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			logs, err := s.ListAuditLogs(cmd.Context(), limit, action)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACTION\tRESOURCE\tIP")
			for _, l := range logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					l.CreatedAt.Format("2006-01-02 15:04:05"), l.Action, l.Resource, l.IP)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	cmd.Flags().StringVar(&action, "action", "", "filter by action")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document and passage counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			docs, passages, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "documents: %d\npassages:  %d\n", docs, passages)
			return nil
		},
	}
}
