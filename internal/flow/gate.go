package flow

import (
	"fmt"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
	"github.com/IgorLuiz777/onedi-02/internal/store"
)

// Per-action trial costs in minutes, and the low-water mark below which the
// gate warns the user while still allowing the action.
const (
	CostTextTurn  = 2
	CostAudioTurn = 1
	LowWaterMark  = 2
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed          bool
	Warn             bool
	MinutesRemaining int
	Reason           string // user-facing denial text when not allowed
}

// Gate enforces trial-minute budgets, paid-plan expiry and language
// entitlement before any study action runs.
type Gate struct {
	store store.Store
	now   func() time.Time
}

// NewGate creates a plan gate over the user store.
func NewGate(s store.Store) *Gate {
	return &Gate{store: s, now: time.Now}
}

// Check consults the plan and, for trial users, deducts the action cost.
// Trial block rule: deny iff remaining - cost <= 0, without deducting.
func (g *Gate) Check(phone string, costMinutes int) (Decision, error) {
	plan, err := g.store.GetPlanStatus(phone)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load plan status: %w", err)
	}
	if plan == nil {
		return Decision{Allowed: false, Reason: upsellMessage}, nil
	}

	switch plan.Status {
	case models.PlanActive:
		if plan.Expiry != nil && plan.Expiry.Before(g.now()) {
			return Decision{Allowed: false, Reason: planExpiredMessage}, nil
		}
		return Decision{Allowed: true, MinutesRemaining: -1}, nil
	case models.PlanTrial:
		if plan.MinutesRemaining-costMinutes <= 0 {
			return Decision{Allowed: false, MinutesRemaining: plan.MinutesRemaining, Reason: upsellMessage}, nil
		}
		remaining, err := g.store.ConsumeTrialMinutes(phone, costMinutes)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to consume trial minutes: %w", err)
		}
		return Decision{Allowed: true, Warn: remaining <= LowWaterMark, MinutesRemaining: remaining}, nil
	default:
		return Decision{Allowed: false, Reason: planExpiredMessage}, nil
	}
}

// CheckLanguage verifies the user may study the given language. Trial users
// are pinned to their test language; paid users are checked against their
// entitled-language list.
func (g *Gate) CheckLanguage(profile *models.UserProfile, language string) bool {
	if profile == nil {
		return false
	}
	if profile.PlanStatus == models.PlanTrial {
		return profile.TestLanguage == "" || profile.TestLanguage == language
	}
	if len(profile.EntitledLanguages) == 0 {
		return true
	}
	for _, entitled := range profile.EntitledLanguages {
		if entitled == language {
			return true
		}
	}
	return false
}
