package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataversedocs/blueprint/internal/blueprint"
	"github.com/dataversedocs/blueprint/internal/cli/config"
	"github.com/dataversedocs/blueprint/internal/cli/ui"
	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/render"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var (
		environmentURL string
		solutions      []string
		outputDir      string
		snapshotPath   string
		offline        bool
		noColor        bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the solution blueprint",
		Long: `Aggregate the selected solutions' metadata and write the blueprint
documents (Markdown report with embedded ERD, JSON export) to the
output directory. With --snapshot, responses are recorded for later
offline regeneration via --offline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if environmentURL != "" {
				cfg.EnvironmentURL = environmentURL
			}
			if len(solutions) > 0 {
				cfg.Solutions = solutions
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if snapshotPath != "" {
				cfg.SnapshotPath = snapshotPath
			}
			if offline {
				cfg.Offline = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, noColor)
		},
	}

	cmd.Flags().StringVar(&environmentURL, "url", "", "Dataverse environment URL")
	cmd.Flags().StringSliceVar(&solutions, "solutions", nil, "solution unique names to document")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default docs)")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "record responses into this SQLite snapshot")
	cmd.Flags().BoolVar(&offline, "offline", false, "replay from the snapshot instead of the network")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func runGenerate(ctx context.Context, cfg *config.Config, noColor bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger := zap.NewNop()
	if cfg.Verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	// Run id correlates log lines and snapshot records from one run.
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	client, cleanup, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(cfg.Solutions) == 0 {
		names, err := promptSolutions(ctx, client)
		if err != nil {
			return err
		}
		cfg.Solutions = names
	}
	if len(cfg.Solutions) == 0 {
		return fmt.Errorf("no solutions selected")
	}

	printer := ui.NewProgressPrinter(os.Stderr, ui.ProgressOptions{NoColor: noColor})
	orch := blueprint.New(client, blueprint.Options{
		EnvironmentURL: cfg.EnvironmentURL,
		EntityDelay:    50 * time.Millisecond,
		Logger:         logger,
		Progress: func(p blueprint.Progress) {
			printer.Step(p.Phase, p.Current, p.Total, p.Message)
		},
	})

	result, err := orch.Generate(ctx, cfg.Solutions)
	if errors.Is(err, context.Canceled) {
		printer.Fail("Generation stopped")
		return nil
	}
	if err != nil {
		printer.Fail(err.Error())
		return err
	}

	if err := render.NewMarkdownGenerator(cfg.OutputDir).Generate(result); err != nil {
		return err
	}
	if err := render.NewJSONGenerator(cfg.OutputDir).Generate(result); err != nil {
		return err
	}

	printer.Done(fmt.Sprintf("Blueprint written to %s (%d entities, %d relationships)",
		cfg.OutputDir, len(result.Blueprint.Entities), result.ERD.TotalRelationships))
	return nil
}

// buildClient assembles the query client: HTTP, recording, or replay,
// depending on snapshot configuration.
func buildClient(cfg *config.Config, logger *zap.Logger) (dataverse.Client, func(), error) {
	noop := func() {}

	if cfg.Offline {
		store, err := dataverse.OpenSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			return nil, noop, err
		}
		return dataverse.NewReplayClient(store), func() { store.Close() }, nil
	}

	token, err := cfg.Token()
	if err != nil {
		return nil, noop, err
	}
	if token == "" {
		return nil, noop, fmt.Errorf("an access token is required (access_token or token_file)")
	}

	var client dataverse.Client = dataverse.NewHTTPClient(
		cfg.EnvironmentURL, dataverse.NewStaticToken(token), logger)

	if cfg.SnapshotPath != "" {
		store, err := dataverse.OpenSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			return nil, noop, err
		}
		return dataverse.NewRecordingClient(client, store), func() { store.Close() }, nil
	}
	return client, noop, nil
}

// promptSolutions lists unmanaged solutions in the environment and lets
// the user pick interactively. Non-interactive sessions fail instead of
// hanging on a prompt.
func promptSolutions(ctx context.Context, client dataverse.Client) ([]string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, fmt.Errorf("no solutions configured; pass --solutions or run interactively")
	}

	result, err := client.Query(ctx, "solutions", dataverse.QueryOptions{
		Select:  []string{"uniquename", "friendlyname"},
		Filter:  "isvisible eq true",
		OrderBy: "friendlyname asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}

	options := make([]string, 0, len(result.Value))
	byLabel := make(map[string]string, len(result.Value))
	for _, rec := range result.Value {
		label := fmt.Sprintf("%s (%s)", rec.GetString("friendlyname"), rec.GetString("uniquename"))
		options = append(options, label)
		byLabel[label] = rec.GetString("uniquename")
	}

	var picked []string
	prompt := &survey.MultiSelect{
		Message: "Select solutions to document:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(picked))
	for _, label := range picked {
		names = append(names, byLabel[label])
	}
	return names, nil
}
