// Package escalation maps a user's cumulative violation count to a
// punishment action, using the guild's ordered threshold table.
package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/policy"
)

// How far back violations count toward escalation. Distinct from the spam
// detection window: detection looks at seconds, escalation at weeks.
const DefaultLookback = 30 * 24 * time.Hour

// Pure threshold-table lookup: picks the highest threshold whose Count does
// not exceed `count`. Returns a no-op action when no threshold matches.
// The table must be ascending by Count (see policy.ValidateEscalation).
func Pick(table []policy.Threshold, count int) policy.Action {
	action := policy.Action{Kind: policy.ActionNone}
	for _, t := range table {
		if count >= t.Count {
			action = t.Action
		} else {
			break
		}
	}
	return action
}

// Engine decides punishments from ledger state and policy. Decide is a pure
// function of those inputs: re-evaluating without new ledger writes yields
// the same action.
type Engine struct {
	Policies policy.Store
	Ledger   ledger.Ledger
	Lookback time.Duration
}

func NewEngine(policies policy.Store, lg ledger.Ledger) *Engine {
	return &Engine{
		Policies: policies,
		Ledger:   lg,
		Lookback: DefaultLookback,
	}
}

func (e *Engine) Decide(ctx context.Context, guildID, userID string) (policy.Action, error) {
	lookback := e.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	count, err := e.Ledger.CountSince(ctx, guildID, userID, time.Now().Add(-lookback))
	if err != nil {
		return policy.Action{Kind: policy.ActionNone}, fmt.Errorf("reading violation count: %w", err)
	}
	pol := e.Policies.GetPolicy(ctx, guildID)
	return Pick(pol.Escalation, count), nil
}
