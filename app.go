package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"equipapi/pkg/auth"
	"equipapi/pkg/config"
	"equipapi/pkg/equipment"
	"equipapi/pkg/logging"

	"github.com/gin-gonic/gin"
)

type app struct {
	cfg       *config.Config
	log       logging.Logger
	stores    *stores
	equipment *equipment.Service
	auth      *auth.Service
}

func newApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*app, error) {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:       cfg,
		log:       log,
		stores:    st,
		equipment: equipment.NewService(st.equipment, log),
		auth: auth.NewService(st.users, st.tokens, auth.Options{
			Secret:   []byte(cfg.Auth.JWTSecret),
			TokenTTL: cfg.Auth.TokenTTL,
		}, log),
	}
	if err := seedAdmin(ctx, a.auth, cfg.Admin, log); err != nil {
		st.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) router() *gin.Engine {
	gin.SetMode(a.cfg.HTTP.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.log), authenticate(a.auth, a.log))
	setupRoutes(r, &handlers{equipment: a.equipment, auth: a.auth, log: a.log})
	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *app) Run(ctx context.Context) error {
	srv := &http.Server{Addr: a.cfg.HTTP.Address, Handler: a.router()}

	errc := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "listening", "addr", srv.Addr, "storage", a.cfg.Database.Storage)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.stores.Close()
}
