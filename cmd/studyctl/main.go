package main

import (
	"context"
	"fmt"
	"os"

	"xaistudy/internal"
	"xaistudy/internal/config"
	"xaistudy/internal/container"
	"xaistudy/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "studyctl",
		Short: "Administration commands for the XAI study database",
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newExportCmd(),
		newAttentionCmd(),
		newNextGroupCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads the configuration and returns a container bound to the database
func connect(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c, err := container.New(cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)))
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the study tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			runner := migration.NewRunner(c.Logger)
			if err := runner.Run(cmd.Context(), c.DB); err != nil {
				return err
			}
			fmt.Printf("schema at version %s\n", runner.Version())
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write participants and events to an xlsx workbook",
		Long: `Export every participant and logged event to an Excel workbook.
Matriculation numbers are never exported.

Example: studyctl export --out results.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := c.Export.WriteWorkbook(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "participants.xlsx", "Output file")
	return cmd
}

func newAttentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attention [user-id]",
		Short: "Show the attention and comprehension check result of a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			status, err := c.Attention.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("failed attention checks: %d\n", status.FailedCount)
			fmt.Printf("two or more failed:      %t\n", status.TwoFailed)
			fmt.Printf("comprehension failed:    %t\n", status.ComprehensionFailed)
			return nil
		},
	}
	return cmd
}

func newNextGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-group",
		Short: "Print the study group the next participant would join",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			fmt.Println(c.StudyGroups.StudyGroup(cmd.Context()))
			return nil
		},
	}
}
