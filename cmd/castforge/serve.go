package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/castforge-project/castforge/config"
	"github.com/castforge-project/castforge/release"
	"github.com/castforge-project/castforge/release/store"
	"github.com/castforge-project/castforge/server"
	"github.com/go-faster/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// descriptionFileName is the file a watched release's description is written to,
// dot-prefixed so the watcher itself ignores the write.
const descriptionFileName = ".description.bbcode"

// watchHandler describes watched releases and drops their snapshots on removal.
type watchHandler struct {
	ctx       context.Context
	describer *release.Describer
	store     *store.Store
	logger    *zap.Logger
}

func (wh *watchHandler) HandleUpdate(dir string) error {
	result, err := wh.describer.Describe(wh.ctx, &release.Request{Path: dir})
	if err != nil {
		return err
	}

	path := filepath.Join(dir, descriptionFileName)
	if err := os.WriteFile(path, []byte(result.Description), 0o644); err != nil {
		return errors.Wrap(err, "failed to write description")
	}

	wh.logger.Info(
		"described watched release",
		zap.String("id", result.ID),
		zap.String("name", result.Name),
		zap.String("path", path),
	)
	return nil
}

func (wh *watchHandler) HandleRemove(dir string) error {
	if wh.store == nil {
		return nil
	}

	id := release.ID(wh.describer.CleanName(filepath.Base(dir)))
	if err := wh.store.Delete(id); err != nil {
		return errors.Wrap(err, "failed to delete release snapshot")
	}

	wh.logger.Info("dropped removed release", zap.String("id", id), zap.String("path", dir))
	return nil
}

// handleServe handles the serve sub-command.
func (ac *appContext) handleServe(cCtx *cli.Context) (err error) {
	cfg, err := config.ParseWithDefaults(cCtx.String("config"))
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	s, err := server.NewConfiguredServer(cfg, ac.logger)
	if err != nil {
		return errors.Wrap(err, "failed to configure server")
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt)
	defer stop()

	if cfg.Release.WatchDir != "" {
		watcher, err := release.NewWatcher(cfg.Release.WatchDir, &watchHandler{
			ctx:       ctx,
			describer: s.Describer(),
			store:     s.Store(),
			logger:    ac.logger,
		}, ac.logger)
		if err != nil {
			return errors.Wrap(err, "failed to watch release folders")
		}
		defer func() {
			if err0 := watcher.Close(); err0 != nil {
				err = multierr.Append(err, errors.Wrap(err0, "failed to close watcher"))
			}
		}()

		ac.logger.Info("watching release folders", zap.String("path", cfg.Release.WatchDir))
	}

	var (
		httpServer = &http.Server{Addr: cfg.HTTP.Host, Handler: server.NewRouter(s, ac.logger)}
		errorChan  = make(chan error)
	)
	go func() {
		ac.logger.Info("listening for http requests", zap.String("addr", httpServer.Addr))
		errorChan <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		ac.logger.Info("shutting down gracefully")
		if err = httpServer.Shutdown(ctx); err != nil {
			err = errors.Wrap(err, "failed to shutdown http server")
		}
	case err = <-errorChan:
		err = errors.Wrap(err, "http server errored")
	}

	return err
}
