// Package cli implements the smaf command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"sma-forecast/internal/config"
	"sma-forecast/internal/data"
	"sma-forecast/internal/logging"
	"sma-forecast/internal/pipeline"
	"sma-forecast/internal/regress"
	"sma-forecast/internal/render"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// state is shared by the subcommands once the root has loaded config.
type state struct {
	cfgPath  string
	logLevel string
	cfg      *config.Config
	log      zerolog.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	st := &state{log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "smaf",
		Short: "Simple moving average forecasting over a daily price series",
		Long: `smaf aggregates a daily price series into simple moving averages and fits
small dense regressors that predict window averages from raw closes or dates.
Prices come from the data server (cmd/api) or from a local snapshot.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&st.cfgPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Override log level")

	rootCmd.AddCommand(newRunCmd(st))
	rootCmd.AddCommand(newVariantsCmd(st))
	rootCmd.AddCommand(newFetchCmd(st))
	rootCmd.AddCommand(newConfigCmd(st))

	return rootCmd
}

func (st *state) load(cmd *cobra.Command) error {
	// config show prints whatever was loaded, valid or not.
	strict := cmd.Name() != "show"
	var (
		cfg *config.Config
		err error
	)
	if strict {
		cfg, err = config.Load(st.cfgPath)
	} else {
		cfg, err = config.LoadUnchecked(st.cfgPath)
	}
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	st.cfg, st.log = cfg, log
	return nil
}

// newRunCmd creates the run command
func newRunCmd(st *state) *cobra.Command {
	var (
		dataFile string
		dataURL  string
		outDir   string
		formats  []string
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "run [VARIANT...]",
		Short: "Run pipeline variants (all configured variants when none are named)",
		Example: `  smaf run window
  smaf run --data-file 5-years.json --format table,json scatter date`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := st.cfg
			if dataFile != "" {
				cfg.Pipeline.DataFile = dataFile
			}
			if dataURL != "" {
				cfg.Pipeline.DataURL = dataURL
			}
			if outDir != "" {
				cfg.Render.OutDir = outDir
			}
			if len(formats) > 0 {
				cfg.Render.Formats = formats
			}

			variants, err := selectVariants(cfg, args)
			if err != nil {
				return err
			}
			sink, err := render.New(cfg.Render.Formats, cfg.Render.OutDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := &pipeline.Runner{
				Loader:    data.NewLoader(cfg.Pipeline),
				Regressor: regress.NewDense(),
				Sink:      sink,
				Log:       st.log,
			}
			for _, v := range variants {
				if cmd.Flags().Changed("seed") {
					v.Seed = seed
				}
				if _, err := runner.Run(ctx, v); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data-file", "", "Read prices from a local snapshot instead of the data server")
	cmd.Flags().StringVar(&dataURL, "data-url", "", "Data server base URL")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for csv/json output")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Output formats: table, csv, json")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed weight init and batch order")

	return cmd
}

func selectVariants(cfg *config.Config, names []string) ([]config.VariantConfig, error) {
	if len(names) == 0 {
		return cfg.Variants, nil
	}
	out := make([]config.VariantConfig, 0, len(names))
	for _, n := range names {
		v, ok := cfg.Variant(n)
		if !ok {
			return nil, fmt.Errorf("unknown variant %q (have: %s)", n, strings.Join(variantNames(cfg), ", "))
		}
		out = append(out, v)
	}
	return out, nil
}

func variantNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Variants))
	for i, v := range cfg.Variants {
		names[i] = v.Name
	}
	return names
}

// newVariantsCmd creates the variants command
func newVariantsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List configured pipeline variants",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), renderVariants(st.cfg.Variants))
		},
	}
}

// newFetchCmd creates the fetch command
func newFetchCmd(st *state) *cobra.Command {
	var (
		out        string
		symbol     string
		outputSize string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Save the live daily series to a snapshot file",
		Long: `Fetch TIME_SERIES_DAILY for the configured symbol and write it as a JSON
array of {"Date","Close"} records, ready to be served by the file source.
Requires ALPHA_ADVANTAGE_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			av := st.cfg.Source.AlphaVantage
			if strings.TrimSpace(av.APIKey) == "" {
				return errors.New(config.APIKeyEnv + " is not set")
			}
			if symbol != "" {
				av.Symbol = symbol
			}
			if outputSize != "" {
				av.OutputSize = outputSize
			}
			if out == "" {
				out = st.cfg.Source.File
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), av.Timeout+av.Timeout/2)
			defer cancel()

			client, cache := data.NewAlphaVantageFromConfig(av, nil, st.log)
			defer cache.Close()
			records, err := client.DailyCloses(ctx, data.DailyParams{Symbol: av.Symbol, OutputSize: av.OutputSize})
			if err != nil {
				return err
			}
			if err := data.SaveSnapshot(records, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				successStyle.Render("saved"),
				fmt.Sprintf("%d %s closes to %s", len(records), av.Symbol, out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Snapshot path (defaults to source.file)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Ticker symbol")
	cmd.Flags().StringVar(&outputSize, "output-size", "", "full or compact")

	return cmd
}

// newConfigCmd creates the config command
func newConfigCmd(st *state) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *st.cfg
			if shown.Source.AlphaVantage.APIKey != "" {
				shown.Source.AlphaVantage.APIKey = "****"
			}
			raw, err := yaml.Marshal(&shown)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("configuration is valid"))
		},
	})

	return configCmd
}
