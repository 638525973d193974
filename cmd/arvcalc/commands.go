package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"arvcalc/config"
	"arvcalc/internal/analysis"
	"arvcalc/internal/models"
)

var version = "dev"

type options struct {
	envFile    string
	marketPath string
	logLevel   string
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "arvcalc",
		Short:        "Estimate after-repair value, renovation budget and ROI for a property",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			logger.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "optional .env file to load")
	root.PersistentFlags().StringVar(&opts.marketPath, "markets", "", "market configuration file (overrides MARKET_CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newSampleCmd(opts, logger),
		newAnalyzeCmd(opts, logger),
		newVersionCmd(),
	)
	return root
}

func newSampleCmd(opts *options, logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Run the built-in sample analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newService(opts, logger)
			if err != nil {
				return err
			}
			report, err := service.Analyze(cmd.Context(), analysis.SampleRequest(time.Now()))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newAnalyzeCmd(opts *options, logger *logrus.Logger) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the request in a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(input)
			if err != nil {
				return err
			}

			service, err := newService(opts, logger)
			if err != nil {
				return err
			}
			report, err := service.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			if output == "" {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			return writeJSON(f, report)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "request JSON file, or - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report here instead of stdout")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// newService builds an analysis service with no candidate store; requests
// carry their own candidates.
func newService(opts *options, logger *logrus.Logger) (*analysis.Service, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return nil, err
	}

	path := cfg.MarketConfigPath
	if opts.marketPath != "" {
		path = opts.marketPath
	}
	markets, err := config.LoadMarketTable(path)
	if err != nil {
		return nil, err
	}

	return analysis.NewService(cfg, markets, nil, nil, logger), nil
}

func readRequest(path string) (models.AnalysisRequest, error) {
	var req models.AnalysisRequest

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
