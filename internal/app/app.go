package app

import (
	"context"
	"errors"
	"net/http"
	"numbers_backend/internal/config"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	ServiceProvider *ServiceProvider
}

func NewApp() *App {
	return &App{}
}

func (s *App) initServiceProvider() {
	s.ServiceProvider = newServiceProvider()
}

// Run поднимает HTTP сервер, планировщик раундов и обработчик очереди объявлений.
// Завершается по SIGINT/SIGTERM
func (s *App) Run() error {
	err := config.Load(".env")
	s.initServiceProvider()
	sp := s.ServiceProvider
	log := sp.Logger()
	if err != nil {
		log.Warn().Err(err).Msg("error loading .env file")
	}
	defer sp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sp.Migrator(ctx).Up(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              sp.HTTPCfg().Address(),
		Handler:           sp.Router(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sp.Scheduler(ctx).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sp.DeclareService(ctx).RunDrainer(ctx, sp.GameCfg().DrainInterval())
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("http shutdown")
	}

	wg.Wait()
	log.Info().Msg("stopped")
	return err
}
