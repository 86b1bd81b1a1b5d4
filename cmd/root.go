package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"contendq/internal/banner"
	"contendq/internal/cli"
	"contendq/internal/logger"
	"contendq/internal/report"
	"contendq/internal/runner"
	"contendq/internal/scenario"
	"contendq/internal/stats"
	"contendq/internal/storage"
	"contendq/internal/tui"
)

// defaultDuration applies when neither duration nor iterations is given.
const defaultDuration = 30 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "contendq",
	Short: "ContendQ - contention load tester for the team/question allocation service",
	Long: `
ContendQ drives concurrent virtual users through realistic workflows against
the allocation service and reports how it holds up under contention.

It supports two modes:
1. CLI Mode (Default): progress line and summary, suited to CI
2. TUI Mode (--tui): live dashboard with result and history tabs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadTest(cmd.Context())
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dummyCmd, historyCmd, suitesCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.contendq.yaml)")
	rootCmd.PersistentFlags().String("history-db", "", "Run history database (default is $HOME/.contendq/history.db)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	f := rootCmd.Flags()
	f.StringP("url", "u", "", "Service base URL including its prefix, e.g. http://localhost:8000/siamMPL")
	f.IntP("users", "U", 10, "Concurrent virtual users")
	f.DurationP("duration", "d", 0, "Run for this long (default 30s when --iterations is not set)")
	f.IntP("iterations", "i", 0, "Total scenario iterations shared by all users")
	f.StringP("suite", "s", "system", "Scenario suite ("+strings.Join(scenario.SuiteNames(), ", ")+")")
	f.Int("timeout", 30, "Request timeout in seconds")
	f.StringSliceP("header", "H", []string{}, "HTTP Header (e.g. \"Key: Value\")")
	f.String("weights", "", "YAML file mapping scenario name to weight")
	f.Float64("quit-probability", 0.3, "Chance a mystery scenario quits its mystery question")
	f.String("fixture-question", "Q123", "Question every contention user competes for")
	f.Duration("fast-threshold", 3*time.Second, "Responses faster than this count as fast operations")
	f.StringP("out", "o", "", "Output filename prefix for auto-reporting")
	f.String("format", "all", "Report format (json, yaml, csv, all)")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :9090")
	f.Bool("tui", false, "Show the interactive dashboard")

	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.BindPFlags(f)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".contendq")
		}
	}
	viper.SetEnvPrefix("contendq")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "⚠️  could not read config %s: %v\n", cfgFile, err)
		}
	}
}

// configFromViper merges flags, environment and config file into a run config.
func configFromViper() (runner.Config, error) {
	headers, err := runner.ParseHeaders(viper.GetStringSlice("header"))
	if err != nil {
		return runner.Config{}, err
	}

	var weights map[string]float64
	if path := viper.GetString("weights"); path != "" {
		if weights, err = scenario.LoadWeights(path); err != nil {
			return runner.Config{}, err
		}
	}

	params := scenario.DefaultParams()
	params.QuitProbability = viper.GetFloat64("quit-probability")
	params.FixtureQuestion = viper.GetString("fixture-question")
	params.FastThreshold = viper.GetDuration("fast-threshold")

	cfg := runner.Config{
		BaseURL:    strings.TrimRight(viper.GetString("url"), "/"),
		NumUsers:   viper.GetInt("users"),
		TimeoutSec: viper.GetInt("timeout"),
		Duration:   viper.GetDuration("duration"),
		Iterations: viper.GetInt("iterations"),
		Suite:      viper.GetString("suite"),
		Weights:    weights,
		Headers:    headers,
		Params:     params,
		OutPrefix:  viper.GetString("out"),
		Format:     viper.GetString("format"),
	}
	if cfg.Duration == 0 && cfg.Iterations == 0 {
		cfg.Duration = defaultDuration
	}
	return cfg, nil
}

func newLogger(interactive bool) (*zap.Logger, error) {
	level := viper.GetString("log-level")
	if path := viper.GetString("log-file"); path != "" {
		return logger.New(level, path)
	}
	if interactive {
		// the dashboard owns the terminal
		return zap.NewNop(), nil
	}
	return logger.New(level)
}

func openStore() (*storage.Store, error) {
	path := viper.GetString("history-db")
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return storage.NewStore(path)
}

func runLoadTest(ctx context.Context) error {
	cfg, err := configFromViper()
	if err != nil {
		return err
	}
	interactive := viper.GetBool("tui")

	log, err := newLogger(interactive)
	if err != nil {
		return err
	}
	defer log.Sync()

	agg := stats.NewAggregator()
	updates := make(runner.StatsUpdateChan, 100)
	run, err := runner.NewRunner(cfg, updates, runner.WithLogger(log), runner.WithAggregator(agg))
	if err != nil {
		return err
	}

	if addr := viper.GetString("metrics-addr"); addr != "" {
		srv := serveMetrics(addr, agg, log)
		defer srv.Shutdown(context.Background())
	}

	// History is best effort; a locked or unwritable db must not block a run.
	store, err := openStore()
	if err != nil {
		log.Warn("run history disabled", zap.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	finish := func(snap stats.Snapshot, elapsed time.Duration) (string, error) {
		return saveRun(run, store, snap, elapsed)
	}

	if interactive {
		m := tui.NewModel(ctx, run, store, finish)
		p := tea.NewProgram(m, tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("error running ContendQ: %w", err)
		}
		if fm, ok := final.(tui.Model); ok && fm.Err != nil {
			return fm.Err
		}
		return nil
	}

	snap, elapsed, err := cli.Start(ctx, run)
	if err != nil {
		return err
	}
	status, err := finish(snap, elapsed)
	if status != "" {
		fmt.Println(status)
	}
	return err
}

// saveRun records the finished run in the history store and writes the
// requested report files. It returns a one-line status for the user.
func saveRun(r *runner.Runner, store *storage.Store, snap stats.Snapshot, elapsed time.Duration) (string, error) {
	started := time.Now().Add(-elapsed)
	var status []string

	if store != nil {
		item := storage.NewHistoryItem(started, elapsed, r.Cfg, r.Seed.Tag(), snap)
		if err := store.Save(item); err != nil {
			return "", fmt.Errorf("save history: %w", err)
		}
		status = append(status, "💾 Saved run "+item.ID)
	}

	if r.Cfg.OutPrefix != "" {
		rep := report.Report{
			RunID:          r.Seed.Tag(),
			Suite:          r.Suite.Name,
			BaseURL:        r.Cfg.BaseURL,
			Users:          r.Cfg.NumUsers,
			StartedAt:      started,
			ElapsedSeconds: elapsed.Seconds(),
			Metrics:        snap,
		}
		files, err := report.Export(rep, r.Cfg.OutPrefix, r.Cfg.Format)
		if err != nil {
			return strings.Join(status, "\n"), err
		}
		status = append(status, "📄 Reports: "+strings.Join(files, ", "))
	}
	return strings.Join(status, "\n"), nil
}

func serveMetrics(addr string, agg *stats.Aggregator, log *zap.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(stats.NewCollector(agg, "contendq"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics endpoint failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}
