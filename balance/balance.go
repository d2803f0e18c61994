// Package balance derives balances from ledger state. Nothing here is
// stored; every figure is recomputed from the events and expenses passed in,
// and absent data contributes zero rather than failing.
package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"splitfree/models"
	"splitfree/money"
)

// SplitItem is one person's net position in the pool model. Positive means
// the person is owed money.
type SplitItem struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// Summary is the collection state of a single event. RemainingCount is a
// count of pending participants, kept for existing callers; RemainingAmount
// is the uncollected money.
type Summary struct {
	Collected       decimal.Decimal `json:"collected"`
	Total           decimal.Decimal `json:"total"`
	PaidCount       int             `json:"paidCount"`
	PendingCount    int             `json:"pendingCount"`
	RemainingCount  int             `json:"remainingCount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

// UserBalance is the dashboard view for one user.
type UserBalance struct {
	PendingToCollect    decimal.Decimal `json:"pendingToCollect"`
	PendingToPay        decimal.Decimal `json:"pendingToPay"`
	ThisMonthSpent      decimal.Decimal `json:"thisMonthSpent"`
	ThisMonthEventCount int             `json:"thisMonthEvents"`
}

type UserStats struct {
	FriendsCount      int `json:"friendsCount"`
	GroupsCount       int `json:"groupsCount"`
	ActiveGroupsCount int `json:"activeGroupsCount"`
	PaymentsMade      int `json:"paymentsMade"`
}

// ComputeSimpleSplit nets every expense into per-person balances. Each expense is
// shared equally with an unrounded share; the payer is credited the amount
// minus their own share and every other participant is debited one share.
// Only the final per-person total is rounded, so the balances may miss zero
// by up to a cent per person.
func ComputeSimpleSplit(people []models.Person, expenses []models.Expense) []SplitItem {
	totals := make(map[uint]decimal.Decimal, len(people))

	for _, exp := range expenses {
		if len(exp.Participants) == 0 {
			continue
		}
		share := exp.Amount.Div(decimal.NewFromInt(int64(len(exp.Participants))))
		for _, pid := range exp.Participants {
			if pid == exp.PayerID {
				totals[pid] = totals[pid].Add(exp.Amount.Sub(share))
			} else {
				totals[pid] = totals[pid].Sub(share)
			}
		}
	}

	out := make([]SplitItem, 0, len(people))
	for _, p := range people {
		out = append(out, SplitItem{
			ID:      p.ID,
			Name:    p.Name,
			Balance: money.RoundTotal(totals[p.ID]),
		})
	}
	return out
}

func ComputeEventSummary(event models.Event) Summary {
	collected := decimal.Zero
	var paid, pending int
	for _, p := range event.Participants {
		switch p.Status {
		case models.ParticipantPaid:
			collected = collected.Add(p.Amount)
			paid++
		case models.ParticipantPending:
			pending++
		}
	}
	collected = money.RoundTotal(collected)

	return Summary{
		Collected:       collected,
		Total:           event.Total,
		PaidCount:       paid,
		PendingCount:    pending,
		RemainingCount:  pending,
		RemainingAmount: money.RoundTotal(event.Total.Sub(collected)),
	}
}

// StartOfMonth returns midnight on the first day of now's month, in now's
// location.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ComputeUserBalance scans events for userID. As creator the user collects
// every other pending share; as a non-creator participant they owe their own
// pending share; any participation in an event created this month counts
// towards monthly spend whatever its status.
func ComputeUserBalance(userID uint, events []models.Event, now time.Time) UserBalance {
	monthStart := StartOfMonth(now)
	var toCollect, toPay, spent decimal.Decimal
	var monthEvents int

	for _, event := range events {
		if event.CreatedByID == userID {
			for _, p := range event.Participants {
				if p.UserID != userID && p.Status == models.ParticipantPending {
					toCollect = toCollect.Add(p.Amount)
				}
			}
		}

		mine := event.ParticipantFor(userID)
		if mine == nil {
			continue
		}
		if event.CreatedByID != userID && mine.Status == models.ParticipantPending {
			toPay = toPay.Add(mine.Amount)
		}
		if !event.CreatedAt.Before(monthStart) {
			spent = spent.Add(mine.Amount)
			monthEvents++
		}
	}

	return UserBalance{
		PendingToCollect:    money.RoundTotal(toCollect),
		PendingToPay:        money.RoundTotal(toPay),
		ThisMonthSpent:      money.RoundTotal(spent),
		ThisMonthEventCount: monthEvents,
	}
}

// ComputeUserStats counts the user's relationships and payments. There is no
// separate notion of an active group, so ActiveGroupsCount equals GroupsCount.
func ComputeUserStats(userID uint, friends []models.Friend, groups []models.Group, events []models.Event) UserStats {
	var stats UserStats
	for _, f := range friends {
		if f.Involves(userID) {
			stats.FriendsCount++
		}
	}
	for i := range groups {
		if groups[i].HasMember(userID) {
			stats.GroupsCount++
		}
	}
	stats.ActiveGroupsCount = stats.GroupsCount
	for _, event := range events {
		if p := event.ParticipantFor(userID); p != nil && p.Status == models.ParticipantPaid {
			stats.PaymentsMade++
		}
	}
	return stats
}
