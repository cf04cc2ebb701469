// Command people runs the people queries: filters over a small list of
// people in parallel, showing worker control, ordering, sequential
// hand-off and error aggregation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kbukum/parq/config"
	"github.com/kbukum/parq/logger"
	"github.com/kbukum/parq/observability"
	"github.com/kbukum/parq/query"
	"github.com/kbukum/parq/version"
)

const appName = "people"

type flags struct {
	configFile string
	envFile    string
	degree     string
	ordering   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		f flags
		a *app
	)

	root := &cobra.Command{
		Use:           appName,
		Short:         "Run parallel queries over the people list",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = setup(cmd.Context(), f)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAll(cmd.Context(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&f.configFile, "config", "", "config file (default: cmd/people/config.yml)")
	root.PersistentFlags().StringVar(&f.envFile, "env-file", "", ".env file to load")
	root.PersistentFlags().StringVar(&f.degree, "degree", "", `worker count, or "auto"`)
	root.PersistentFlags().StringVar(&f.ordering, "ordering", "", "relax or preserve")

	for _, s := range scenarios {
		root.AddCommand(&cobra.Command{
			Use:   s.name,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.run(cmd.Context(), cmd.OutOrStdout(), s)
			},
		})
	}
	return root
}

// app carries what every scenario shares.
type app struct {
	cfg      *config.AppConfig
	log      *logger.Logger
	metrics  *observability.QueryMetrics
	shutdown func(context.Context) error
}

func setup(ctx context.Context, f flags) (*app, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	cfg, err := config.Load(appName, opts...)
	if err != nil {
		return nil, err
	}
	if f.degree != "" {
		if err := cfg.Query.Degree.UnmarshalText([]byte(f.degree)); err != nil {
			return nil, err
		}
	}
	if f.ordering != "" {
		cfg.Query.Ordering = query.Ordering(f.ordering)
	}
	if err := cfg.Query.Validate(); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Version
	}

	logger.Init(cfg.Logging)
	a := &app{
		cfg:      cfg,
		log:      logger.WithComponent(appName),
		shutdown: func(context.Context) error { return nil },
	}
	logger.Register("query", logger.WithComponent("query"))

	if !cfg.Observability.Enabled {
		return a, nil
	}
	tp, err := observability.InitTracer(ctx, cfg.Observability.Tracer(cfg.Name, cfg.Version, cfg.Environment))
	if err != nil {
		return nil, err
	}
	mp, err := observability.InitMeter(ctx, cfg.Observability.Meter(cfg.Name, cfg.Version, cfg.Environment))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	a.metrics, err = observability.NewQueryMetrics(observability.Meter(appName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	a.shutdown = func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil {
			return err
		}
		return tp.Shutdown(ctx)
	}
	return a, nil
}

func (a *app) options() []query.Option {
	opts := []query.Option{query.WithLogger(logger.Get("query"))}
	if a.metrics != nil {
		opts = append(opts, query.WithMetrics(a.metrics))
	}
	return opts
}
