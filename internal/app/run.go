package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/inputwatch"
)

// Run opens a session and follows the inputs directory until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	sess, err := a.factory.NewSession(ctx, a.model)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer func() {
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Session close failed.", "error", err)
		}
	}()

	srv := a.startServer(ctx, sess)
	defer a.stopServer(ctx, srv)

	a.logger.Info("🚀 Watching inputs...", "dir", a.config.InputsPath, "session_id", sess.ID())
	watcher := inputwatch.New(a.config.InputsPath, sess.Reconciler(), inputwatch.DefaultDebounce)
	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("input watcher failed: %w", err)
	}
	a.logger.Info("🏁 Stopped.", "version", sess.Graph().Version())

	a.logger.Debug("App.Run method finished.")
	return nil
}
