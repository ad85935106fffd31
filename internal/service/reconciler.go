package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// startReconciler schedules a periodic re-push of any store whose last
// push failed, so a learner who stops mutating still converges.
func (w *Workspace) startReconciler(spec string) error {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(spec, w.reconcile); err != nil {
		return fmt.Errorf("add reconcile job %q: %w", spec, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	c.Start()
	w.logger.Debug("sync reconciler started", zap.String("spec", spec))
	return nil
}

// reconcile re-pushes stores left dirty by a failed sync.
func (w *Workspace) reconcile() {
	completions := w.Completions.Resync()
	flags := w.Flags.Resync()

	if completions || flags {
		w.logger.Info("reconciling failed syncs",
			zap.Bool("completions", completions),
			zap.Bool("flagged", flags),
		)
	}
}

// Reconciling reports whether the periodic reconciler is scheduled.
func (w *Workspace) Reconciling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cron != nil
}
