package auth

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/socialclone/go-social-backend/internal/platform/logging"
)

// Refresher keeps the active session's ID token fresh. Provider
// tokens expire after an hour; the default spec renews well inside
// that window.
type Refresher struct {
	svc  *Service
	cron *cron.Cron
	spec string
}

func NewRefresher(svc *Service, spec string) *Refresher {
	if spec == "" {
		spec = "@every 45m"
	}
	return &Refresher{svc: svc, cron: cron.New(), spec: spec}
}

// Start schedules the refresh job. Returns an error only for a bad
// cron spec.
func (r *Refresher) Start() error {
	logger := logging.ForComponent("session_refresher")

	_, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := r.svc.RefreshSession(ctx); err != nil {
			logger.LogError("refresh_session", err)
			return
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	logger.LogInfof("start", "session refresh scheduled (%s)", r.spec)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
