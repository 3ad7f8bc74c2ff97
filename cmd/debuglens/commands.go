package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/config"
	groupingService "github.com/Avi18971911/DebugLens/internal/grouping/service"
	"github.com/Avi18971911/DebugLens/internal/logger"
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/Avi18971911/DebugLens/internal/pipeline/batch/model"
	batchService "github.com/Avi18971911/DebugLens/internal/pipeline/batch/service"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"io"
	"time"
)

// cli holds what every subcommand needs once the configuration is loaded.
type cli struct {
	configPath string
	pretty     bool
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "debuglens",
		Short: "Analyze Salesforce debug logs from the command line",
		Long: `DebugLens parses debug logs into execution trees, detects performance
and reliability issues, and groups logs into the user transactions they belong to.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setUp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "indent the JSON output")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [file or directory...]",
		Short: "Fully parse debug logs and print their analyses",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runAnalyze,
	}
	metadataCmd := &cobra.Command{
		Use:   "metadata [file or directory...]",
		Short: "Print the identity, timing and counters of debug logs without a full parse",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runMetadata,
	}
	var window time.Duration
	groupCmd := &cobra.Command{
		Use:   "group [file or directory...]",
		Short: "Group debug logs into user transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGroup(cmd, args, window)
		},
	}
	groupCmd.Flags().DurationVar(&window, "window", 0, "maximum gap between two logs of one transaction (default from configuration)")

	rootCmd.AddCommand(analyzeCmd, metadataCmd, groupCmd)
	return rootCmd
}

func (c *cli) setUp() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	zapLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = zapLogger
	return nil
}

func (c *cli) runAnalyze(cmd *cobra.Command, args []string) error {
	result, err := c.importPaths(cmd.Context(), args)
	if err != nil {
		return err
	}
	if err := c.write(cmd.OutOrStdout(), result.Analyses); err != nil {
		return err
	}
	return reportFailures(cmd.ErrOrStderr(), result.Failures)
}

func (c *cli) runMetadata(cmd *cobra.Command, args []string) error {
	sources, failures, err := c.load(args)
	if err != nil {
		return err
	}
	extractor := metadataService.NewMetadataExtractorService(metadataService.DefaultOptions(), c.logger)
	records := make([]metadataModel.DebugLogMetadata, len(sources))
	for i, source := range sources {
		records[i] = extractor.ExtractMetadataAt(source.Text, source.Name, source.LogDate)
	}
	if err := c.write(cmd.OutOrStdout(), records); err != nil {
		return err
	}
	return reportFailures(cmd.ErrOrStderr(), failures)
}

func (c *cli) runGroup(cmd *cobra.Command, args []string, window time.Duration) error {
	if window < 0 {
		return ErrNegativeWindow
	}
	if window == 0 {
		window = c.cfg.Pipeline.GroupingWindow
	}
	result, err := c.importPaths(cmd.Context(), args)
	if err != nil {
		return err
	}
	grouper := groupingService.NewTransactionGrouperService(groupingService.DefaultOptions(), c.logger)
	interaction := grouper.BuildInteraction(result.Metadata, result.Analyses, window)
	if err := c.write(cmd.OutOrStdout(), interaction); err != nil {
		return err
	}
	return reportFailures(cmd.ErrOrStderr(), result.Failures)
}

func (c *cli) load(args []string) ([]model.TraceSource, []model.ImportFailure, error) {
	paths, err := batchService.ExpandPaths(args)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, ErrNoFiles
	}
	sources, failures := batchService.LoadFiles(paths)
	return sources, failures, nil
}

func (c *cli) importPaths(ctx context.Context, args []string) (model.ImportResult, error) {
	sources, loadFailures, err := c.load(args)
	if err != nil {
		return model.ImportResult{}, err
	}
	importer := batchService.NewBatchImportService(
		batchService.Options{
			Workers:       c.cfg.Pipeline.Workers,
			MaxParseLines: c.cfg.Pipeline.MaxParseLines,
		},
		parserService.NewLogParserService(c.cfg.ParserOptions(), c.logger),
		metadataService.NewMetadataExtractorService(metadataService.DefaultOptions(), c.logger),
		c.logger,
	)
	if ctx == nil {
		ctx = context.Background()
	}
	result := importer.Import(ctx, sources)
	result.Failures = append(loadFailures, result.Failures...)
	return result, nil
}

func (c *cli) write(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	if c.pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func reportFailures(w io.Writer, failures []model.ImportFailure) error {
	if len(failures) == 0 {
		return nil
	}
	for _, failure := range failures {
		fmt.Fprintln(w, failure.Error())
	}
	return fmt.Errorf("%w: %d of the given logs", ErrImportFailed, len(failures))
}

var (
	ErrNoFiles        = errors.New("no log files found")
	ErrNegativeWindow = errors.New("window must not be negative")
	ErrImportFailed   = errors.New("failed to import")
)
