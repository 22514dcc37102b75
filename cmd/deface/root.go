package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/reproneuro/deface/internal/annex"
	"github.com/reproneuro/deface/internal/config"
	"github.com/reproneuro/deface/internal/data"
	"github.com/reproneuro/deface/internal/deface"
	"github.com/reproneuro/deface/internal/fsl"
	"github.com/reproneuro/deface/internal/history"
	"github.com/reproneuro/deface/internal/log"
	"github.com/reproneuro/deface/internal/model"
	"github.com/reproneuro/deface/internal/report"
	"github.com/reproneuro/deface/internal/workflow"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for deface.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deface [image]...",
		Short: "Remove facial features from MRI brain volumes",
		Long: `deface removes facial features from MRI brain volumes.

It aligns a whole-head template to each image, projects a face-covering
mask into the image's native space, and writes the mask beside the
input. With --apply the mask is also multiplied into the image.

deface requires an FSL installation; point the FSLDIR environment
variable (or the fsldir key of a configuration file) at its root.

Examples:
  # Produce a deface mask for each image
  deface sub-01_T1w.nii.gz sub-02_T1w.nii.gz

  # Overwrite each image with its defaced version, keeping the original
  deface --apply --keep-orig sub-01_T1w.nii.gz

  # Write a defaced sibling without touching the original
  deface --apply-only sub-01_T1w.nii.gz

  # Reuse each image's transform as the seed for the next one
  deface --use-prev-xfm run1.nii.gz run2.nii.gz run3.nii.gz

  # Register outputs with git-annex and tag originals as sensitive
  deface --apply --keep-orig --annex sub-01_T1w.nii.gz

Configuration file (.deface) example:
  fsldir: /usr/local/fsl
  datadir: /usr/local/share/deface`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runDefaceCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Apply behavior flags
	cmd.Flags().Bool("apply", false,
		"Overwrite each input with its defaced version")
	cmd.Flags().Bool("apply-only", false,
		"Write a '_defaced' sibling for each input, leaving the original untouched")
	cmd.Flags().Bool("keep-orig", false,
		"Preserve the original under an '_orig' suffix before --apply overwrites it")

	// Batch behavior flags
	cmd.Flags().Bool("use-prev-xfm", false,
		"Seed each image's template registration with the previous image's transform")
	cmd.Flags().StringP("outdir", "o", "",
		"Write outputs into this directory instead of beside each input")

	// Registration tunables
	cmd.Flags().Float64("search-radius", config.DefaultSearchRadius,
		"Rotational search range in degrees for template registration")
	cmd.Flags().Float64("frac", config.DefaultFraction,
		"Fractional intensity threshold for brain extraction (0 < f < 1)")

	// Archival flags
	cmd.Flags().Bool("annex", false,
		"Register outputs with git-annex and tag originals with a distribution restriction")

	// Toolkit location
	cmd.Flags().String("fsldir", "",
		"FSL installation root (overrides the FSLDIR environment variable)")
	cmd.Flags().String("datadir", "",
		"Directory holding the template, face mask, and weighting images")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .deface in current directory)")

	// Report flags
	cmd.Flags().StringP("report", "r", "",
		"Write a Markdown batch summary to the specified file")
	cmd.Flags().BoolP("json", "j", false,
		"Output the batch summary as JSON (mutually exclusive with --report)")
	cmd.Flags().Bool("no-color", false,
		"Disable colorized diagnostics")

	// Add subcommands
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runDefaceCmd executes the root command.
func runDefaceCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose, cfg.NoColor)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runDeface(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Apply, err = cmd.Flags().GetBool("apply")
	if err != nil {
		return nil, err
	}

	cfg.ApplyOnly, err = cmd.Flags().GetBool("apply-only")
	if err != nil {
		return nil, err
	}

	cfg.KeepOrig, err = cmd.Flags().GetBool("keep-orig")
	if err != nil {
		return nil, err
	}

	cfg.Annex, err = cmd.Flags().GetBool("annex")
	if err != nil {
		return nil, err
	}

	cfg.ChainTransforms, err = cmd.Flags().GetBool("use-prev-xfm")
	if err != nil {
		return nil, err
	}

	cfg.OutDir, err = cmd.Flags().GetString("outdir")
	if err != nil {
		return nil, err
	}

	cfg.SearchRadius, err = cmd.Flags().GetFloat64("search-radius")
	if err != nil {
		return nil, err
	}

	cfg.Fraction, err = cmd.Flags().GetFloat64("frac")
	if err != nil {
		return nil, err
	}

	cfg.FSLDir, err = cmd.Flags().GetString("fsldir")
	if err != nil {
		return nil, err
	}

	cfg.DataDir, err = cmd.Flags().GetString("datadir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.NoColor, err = cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load the configuration file. If the user explicitly specified a
	// path, a missing file is an error; otherwise the standard search
	// order applies and a miss is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	var file *config.File
	if configPath != "" {
		file, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Resolve the toolkit root: flag > FSLDIR env > config file.
	if err := config.ResolveToolkitDir(cfg, file); err != nil {
		return nil, err
	}

	// Template data directory: flag > env > config file. Empty means
	// the toolkit's standard data directories are searched.
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv(config.DataDirEnv)
	}
	if cfg.DataDir == "" && file != nil {
		cfg.DataDir = file.DataDir
	}

	// Get positional arguments (image paths)
	cfg.Inputs = args

	return cfg, nil
}

// runDeface executes the defacing batch.
func runDeface(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	templates, err := data.Locate(cfg.DataDir, cfg.FSLDir)
	if err != nil {
		return err
	}

	// Every intermediate lands in a scratch workspace owned by this
	// process; only final outputs leave it.
	workspace, err := os.MkdirTemp("", "deface-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Error("failed to remove workspace", "path", workspace, "error", err)
		}
	}()

	logger.Info("starting batch",
		"inputs", len(cfg.Inputs),
		"apply", cfg.Apply || cfg.ApplyOnly,
		"annex", cfg.Annex,
		"chainTransforms", cfg.ChainTransforms,
	)

	tk := fsl.New(cfg.FSLDir, fsl.WithLogger(logger))
	stage := deface.NewStage(tk, templates, logger)
	archiver := annex.New(&fsl.ExecRunner{}, logger)

	// The run ledger is provenance bookkeeping; failing to open it must
	// not stop a defacing run.
	var ledger workflow.Ledger
	if cfg.SaveHistory {
		store, err := history.Open(cfg.HistoryDir, history.DefaultOptions())
		if err != nil {
			logger.Warn("failed to open run ledger, continuing without it",
				"dir", cfg.HistoryDir, "error", err)
		} else {
			defer store.Close()
			ledger = store
		}
	}

	driver := workflow.New(cfg, stage, tk, archiver, ledger, workspace, logger)
	batchReport, runErr := driver.Run(ctx)

	// The report covers the items that ran, including a failing one, so
	// it is emitted even when the batch aborted.
	if err := outputReport(cfg, batchReport); err != nil {
		logger.Error("failed to write report", "error", err)
		if runErr == nil {
			return err
		}
	}

	return runErr
}

// outputReport emits the batch summary in the requested format.
func outputReport(cfg *config.Config, batchReport *model.BatchReport) error {
	if cfg.JSONReport {
		_, err := report.NewJSONWriter(os.Stdout).Write(batchReport)
		return err
	}

	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	_, err := report.NewMarkdownWriter(output).Write(batchReport)
	return err
}
