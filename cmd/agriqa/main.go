package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"agriqa/internal/config"
	"agriqa/internal/corpus"
	"agriqa/internal/logging"
	"agriqa/internal/pipeline"
	"agriqa/internal/storage"
)

const defaultDB = "agriqa.db"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		stop()
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "agriqa",
		Short: "Synthetic agricultural produce question dataset generator",
		Long: titleStyle.Render("agriqa") + `

Generates labeled questions about fruits and vegetables asked by simulated
personas, for training intent classifiers.

` + dimStyle.Render("Use 'agriqa [command] --help' for more information."),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "agriqa.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flags.dbPath, "db", "d", "", "Path to the run store database (SQLite)")

	rootCmd.AddCommand(newGenerateCmd(flags))
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newQualityCmd())
	rootCmd.AddCommand(newRunsCmd(flags))
	rootCmd.AddCommand(newExportCmd(flags))
	rootCmd.AddCommand(newDeleteCmd(flags))
	return rootCmd
}

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var (
		size       int
		seed       int64
		out        string
		reportPath string
		noAugment  bool
		paraphrase string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset and write it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			f := cmd.Flags()
			if f.Changed("size") {
				cfg.Generation.Size = size
			}
			if f.Changed("seed") {
				cfg.Generation.Seed = seed
			}
			if f.Changed("out") {
				cfg.Output.CSV = out
			}
			if f.Changed("report") {
				cfg.Output.Report = reportPath
			}
			if flags.dbPath != "" {
				cfg.Output.DB = flags.dbPath
			}
			if noAugment {
				cfg.Generation.Augment = false
			}
			if paraphrase != "" {
				cfg.Paraphrase.Enabled = true
				cfg.Paraphrase.Provider = paraphrase
			}

			log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: cmd.ErrOrStderr()})
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render("Agricultural Chatbot Dataset Generator"))
			fmt.Fprintf(w, "  Target: %d questions, seed %d\n\n", cfg.Generation.Size, cfg.Generation.Seed)

			sum, err := pipeline.Run(cmd.Context(), pipeline.Options{Config: cfg, Logger: log})
			if err != nil {
				return err
			}
			renderSummary(w, sum)
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "size", "n", 0, "Target dataset size")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV path")
	cmd.Flags().StringVar(&reportPath, "report", "", "Pipeline report JSON path")
	cmd.Flags().BoolVar(&noAugment, "no-augment", false, "Skip the augmentation stage")
	cmd.Flags().StringVar(&paraphrase, "paraphrase", "", "Enable paraphrasing with a provider (gemini, ollama)")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var head int
	cmd := &cobra.Command{
		Use:   "verify <csv>",
		Short: "Show the first rows and column summary of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := corpus.LoadCSV(args[0])
			if err != nil {
				return err
			}
			renderVerify(cmd.OutOrStdout(), args[0], table, head)
			return nil
		},
	}
	cmd.Flags().IntVar(&head, "head", 5, "Number of rows to show")
	return cmd
}

func newQualityCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "quality <csv>",
		Short: "Analyze the quality of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := corpus.LoadCSV(args[0])
			if err != nil {
				return err
			}
			rep := corpus.Analyze(table)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			renderQuality(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newRunsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <run-id> <csv>",
		Short: "Write a stored run to a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			run, table, err := store.LoadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := corpus.SaveCSV(args[1], table); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Exported %d questions from run %s to %s", len(table), run.ID, args[1])))
			return nil
		},
	}
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Deleted run "+args[0]))
			return nil
		},
	}
}

// openStore opens the run store named by --db, the config file or the default.
func openStore(flags *rootFlags) (*storage.SQLiteStore, error) {
	path := flags.dbPath
	if path == "" {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		path = cfg.Output.DB
	}
	if path == "" {
		path = defaultDB
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}
