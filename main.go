package main

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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unilife/qa-bot/internal"
	"github.com/unilife/qa-bot/internal/config"
	"github.com/unilife/qa-bot/internal/credential"
	"github.com/unilife/qa-bot/internal/kb"
	"github.com/unilife/qa-bot/internal/logging"
	"github.com/unilife/qa-bot/internal/metrics"
	"github.com/unilife/qa-bot/internal/provider"
	"github.com/unilife/qa-bot/internal/router"
	"github.com/unilife/qa-bot/internal/store"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "unilife",
	Short: "UniLife campus Q&A bot",
	Long: `UniLife answers short questions about campus life.

Rule-based mode answers from a small curated FAQ without any network call.
Provider mode asks Gemini, trying each configured adapter in turn.

Run without a subcommand to start the HTTP API.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // .env is optional

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	askMode        string
	askAPIKey      string
	askModel       string
	askTemperature float64
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question and exit",
	Example: `  unilife ask "Where is the library?"
  unilife ask --mode provider --temperature 0.5 "What clubs can I join?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./unilife.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(internal.ModeRuleBased), "answer mode: provider or rule-based")
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Gemini API key, used only when no secret is configured")
	askCmd.Flags().StringVar(&askModel, "model", "", "Gemini model (default from config)")
	askCmd.Flags().Float64Var(&askTemperature, "temperature", provider.DefaultTemperature, "sampling temperature, clamped to [0, 1]")

	rootCmd.AddCommand(serveCmd, askCmd)
}

// app wires every component from config.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	kb       *kb.KnowledgeBase
	secrets  *credential.FileStore
	chain    *provider.Chain
	router   *router.Router
	history  *store.MemoryStore
	registry *prometheus.Registry
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	base := kb.Default()
	if cfg.KB.File != "" {
		loaded, err := kb.Load(cfg.KB.File)
		if err != nil {
			return nil, err
		}
		base = loaded
	}
	for _, i := range base.Shadowed() {
		logger.Warn("knowledge base entry is never matched by its own question",
			zap.Int("entry", i), zap.String("question", base.Entries()[i].Question))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	secrets := credential.NewFileStore(cfg.Secrets.File, logger.Named("secrets"))
	chain := provider.Build(cfg.Provider.Adapters, provider.Settings{
		GenAIBaseURL:  cfg.Provider.GenAIBaseURL,
		RESTBaseURL:   cfg.Provider.RESTBaseURL,
		OpenAIBaseURL: cfg.Provider.OpenAIBaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.Provider.HTTPTimeout},
	}, logger.Named("provider"), m)

	r := router.New(base, credential.NewResolver(secrets), chain, logger.Named("router"))
	r.DefaultModel = cfg.Provider.DefaultModel
	r.DefaultTemperature = cfg.Provider.DefaultTemperature
	r.Metrics = m

	return &app{
		cfg:      cfg,
		logger:   logger,
		kb:       base,
		secrets:  secrets,
		chain:    chain,
		router:   r,
		history:  store.NewMemoryStore(),
		registry: registry,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Secrets.Watch {
		if err := a.secrets.Watch(ctx); err != nil {
			logger.Warn("secrets file not watched", zap.String("path", cfg.Secrets.File), zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newEngine(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.Strings("adapters", a.chain.Names()),
			zap.Int("kb_entries", len(a.kb.Entries())))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runAsk(cmd *cobra.Command, args []string) error {
	mode, err := internal.ParseMode(askMode)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	q := internal.Query{
		Mode:       mode,
		Question:   strings.Join(args, " "),
		Credential: askAPIKey,
		Model:      askModel,
	}
	if cmd.Flags().Changed("temperature") {
		t := askTemperature
		q.Temperature = &t
	}

	ans, ok := a.router.Answer(cmd.Context(), q)
	if !ok {
		return errors.New("question is empty")
	}
	fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
	if ans.CredentialSource != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "credential source: %s\n", ans.CredentialSource)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
