package balance

import (
	"context"
	"fmt"
	"time"

	"splitfree/ledger"
	"splitfree/repository"
)

// Aggregator feeds the Compute functions from current ledger and
// relationship state. It keeps no state of its own.
type Aggregator struct {
	ledger  *ledger.Ledger
	pool    *ledger.Pool
	friends repository.FriendRepository
	groups  repository.GroupRepository
	now     func() time.Time
}

func NewAggregator(l *ledger.Ledger, pool *ledger.Pool, friends repository.FriendRepository, groups repository.GroupRepository) *Aggregator {
	return &Aggregator{
		ledger:  l,
		pool:    pool,
		friends: friends,
		groups:  groups,
		now:     time.Now,
	}
}

// WithClock returns a copy of the aggregator that reads the time from now.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	out := *a
	out.now = now
	return &out
}

func (a *Aggregator) Split(ctx context.Context) ([]SplitItem, error) {
	people, err := a.pool.ListPeople(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := a.pool.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeSimpleSplit(people, expenses), nil
}

// Summary reports a ledger.NotFoundError when the event does not exist.
func (a *Aggregator) Summary(ctx context.Context, eventID uint) (Summary, error) {
	event, err := a.ledger.GetEvent(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	return ComputeEventSummary(*event), nil
}

func (a *Aggregator) Dashboard(ctx context.Context, userID uint) (UserBalance, error) {
	events, err := a.ledger.ListEvents(ctx)
	if err != nil {
		return UserBalance{}, err
	}
	return ComputeUserBalance(userID, events, a.now()), nil
}

func (a *Aggregator) Stats(ctx context.Context, userID uint) (UserStats, error) {
	friends, err := a.friends.List(ctx)
	if err != nil {
		return UserStats{}, fmt.Errorf("listing friends: %w", err)
	}
	groups, err := a.groups.List(ctx)
	if err != nil {
		return UserStats{}, fmt.Errorf("listing groups: %w", err)
	}
	events, err := a.ledger.ListEvents(ctx)
	if err != nil {
		return UserStats{}, err
	}
	return ComputeUserStats(userID, friends, groups, events), nil
}
