package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rafiq-chat/backend/internal/config"
	"github.com/rafiq-chat/backend/internal/handler"
	"github.com/rafiq-chat/backend/internal/model/persona"
	"github.com/rafiq-chat/backend/internal/service/ai"
	"github.com/rafiq-chat/backend/internal/service/chat"
	"github.com/rafiq-chat/backend/internal/service/conversation"
)

type flags struct {
	addr     string
	logLevel string
	provider string
	envFile  string
}

func main() {
	f := &flags{}

	root := &cobra.Command{
		Use:           "rafiq-api",
		Short:         "Serve the رفيق التحرر chat UI and its streaming API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	root.Flags().StringVar(&f.addr, "addr", "", "listen address, overrides PORT")
	root.Flags().StringVar(&f.logLevel, "log-level", "", "trace|debug|info|warn|error, overrides LOG_LEVEL")
	root.Flags().StringVar(&f.provider, "provider", "", "gemini|ark, overrides AI_PROVIDER")
	root.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("rafiq-api failed")
	}
}

func run(ctx context.Context, f *flags) error {
	setupLogging(os.Getenv("LOG_LEVEL"))

	if err := godotenv.Load(f.envFile); err != nil {
		log.Warn().Err(err).Str("file", f.envFile).Msg("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	p := persona.Rafiq()
	chatService := chat.NewService(chat.WithIdleTTL(cfg.Session.IdleTTL))

	aiService, err := ai.NewService(ctx, p, cfg.AI)
	if err != nil {
		return err
	}
	if err := aiService.Ready(); err != nil {
		// The UI still loads; every turn reports the configuration error.
		log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("response pipeline unconfigured")
	} else {
		log.Info().Str("provider", cfg.AI.Provider).Bool("stream", cfg.AI.StreamResponse).Msg("AI service initialized successfully")
	}

	convo := conversation.NewService(chatService, aiService)
	router := handler.NewRouter(p, chatService, convo, aiService)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return chatService.Run(gctx, cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("rafiq backend listening")
		return runServer(gctx, srv)
	})
	return g.Wait()
}

func applyFlags(cfg *config.Config, f *flags) error {
	if f.addr != "" {
		server, err := config.ParseAddr(f.addr)
		if err != nil {
			return err
		}
		cfg.Server = server
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.provider != "" {
		cfg.AI.Provider = strings.ToLower(f.provider)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupLogging(level string) {
	zerolog.SetGlobalLevel(parseZerologLevel(level))
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// parseZerologLevel converts a string level into zerolog.Level with a safe default
func parseZerologLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
