// fixture-server serves the login page that UI helper tests drive.
//
//	LISTEN_ADDR=:8090 go run ./cmd/fixture-server
//	go run ./cmd/fixture-server --addr 127.0.0.1:9000
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/uihelpers/internal/config"
	"github.com/kuitang/uihelpers/internal/fixture"
	"github.com/kuitang/uihelpers/internal/obs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	obs.Init()
	addr, strict := config.ParseFlags()
	cfg, err := config.LoadConfig(addr, strict)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		obs.Pkg("main").Error("fixture_server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := obs.Pkg("main")
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           fixture.NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fixture_server_listening", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL, "page_driver", cfg.Driver)
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

	logger.Info("fixture_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
