// Package routing decides which subscribers a run delivers to, reconciling
// the run's slot against per-recipient preferences.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"news-digest/internal/domain"
)

// Router filters the configured recipient list for one delivery slot.
type Router struct {
	prefs domain.PreferenceRepo
	log   zerolog.Logger
}

// NewRouter creates the router.
func NewRouter(prefs domain.PreferenceRepo, logger zerolog.Logger) *Router {
	return &Router{prefs: prefs, log: logger}
}

// ResolveSlot maps the run's nominal hour onto a delivery slot: the
// configured morning hour selects morning, everything else is evening.
func ResolveSlot(hour, morningHour int) domain.Slot {
	if hour == morningHour {
		return domain.SlotMorning
	}
	return domain.SlotEvening
}

// Resolve returns the recipients eligible for the slot, preserving input
// order. Recipients without a stored preference default to morning-only:
// the evening run never reaches them. An empty result is valid and simply
// short-circuits delivery.
func (r *Router) Resolve(ctx context.Context, slot domain.Slot, recipients []string) ([]string, error) {
	eligible := make([]string, 0, len(recipients))
	for _, email := range recipients {
		pref, err := r.prefs.GetPreference(ctx, email)
		if errors.Is(err, domain.ErrPreferenceNotFound) {
			if slot == domain.SlotMorning {
				eligible = append(eligible, email)
				continue
			}
			r.log.Debug().Str("email", email).Msg("router: no preference, skipping evening run")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("preference lookup for %s: %w", email, err)
		}
		if !pref.Subscribed {
			r.log.Debug().Str("email", email).Msg("router: unsubscribed, skipping")
			continue
		}
		if pref.PreferredSlot != slot {
			r.log.Debug().Str("email", email).Str("preferred", string(pref.PreferredSlot)).Msg("router: slot mismatch, skipping")
			continue
		}
		eligible = append(eligible, email)
	}
	return eligible, nil
}
