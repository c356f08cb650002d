package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/internal/metrics"
	"github.com/Skotchmaster/corp_site/pkg/logging"
)

// goBestEffort runs fn in the background on a context detached from the
// request. Failures are logged and counted, never returned.
func (s *AuthService) goBestEffort(ctx context.Context, effect string, fn func(context.Context) error) {
	l := logging.FromContext(ctx).With("effect", effect)
	timeout := s.SideEffectTimeout
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return fn(bg)
		}()
		if err != nil {
			l.Warn("side_effect_failed", "error", err)
			metrics.SideEffectFailed(effect)
		}
	}()
}

// Wait blocks until background side effects have finished.
func (s *AuthService) Wait() {
	s.wg.Wait()
}

func (s *AuthService) touchLastLogin(ctx context.Context, userID string, at time.Time) {
	s.goBestEffort(ctx, "last_login", func(ctx context.Context) error {
		return s.Repo.TouchLastLogin(ctx, userID, at)
	})
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if s.Events == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now().UTC()
	}
	s.goBestEffort(ctx, "event_"+e.Type, func(ctx context.Context) error {
		return s.Events.Publish(ctx, e)
	})
}
