package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ycintel/internal/modkit"
	"ycintel/internal/modkit/repokit"
	"ycintel/internal/platform/config"
	"ycintel/internal/platform/logger"
	phttp "ycintel/internal/platform/net/http"
	"ycintel/internal/platform/net/middleware"
	"ycintel/internal/platform/store"

	boardmod "ycintel/internal/services/api/board/module"

	"github.com/go-chi/chi/v5"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("API_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "api", 2), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	// middleware must land on the mux before any route
	srv := phttp.NewServer(root, func(m *chi.Mux) {
		m.Use(middleware.Defaults()...)
		m.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow: apiCfg.MayDuration("SLOW", 500*time.Millisecond),
		}))
		m.Use(middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
			MaxAge:         apiCfg.MayInt("CORS_MAX_AGE", 300),
		}))
	})

	modkit.Mount(srv.Router(), boardmod.New(modkit.FromStore(st, root)),
		modkit.WithMiddlewares(middleware.Timeout(apiCfg.MayDuration("QUERY_TIMEOUT", 10*time.Second))))

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
