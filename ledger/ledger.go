// Package ledger owns the authoritative set of Events and their
// Participants. It enforces the creation rules and the payment state machine:
// a participant goes pending -> paid once, and an event goes pending ->
// settled once every participant has paid or when it is settled in bulk.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"splitfree/models"
	"splitfree/money"
	"splitfree/repository"
)

// Users resolves the identities referenced by an event.
type Users interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// Reminder delivers payment reminders to pending participants.
type Reminder interface {
	RemindPending(ctx context.Context, event models.Event, pending []models.Participant) error
}

type Ledger struct {
	mu       sync.Mutex
	events   repository.EventRepository
	users    Users
	reminder Reminder
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithReminder(r Reminder) Option {
	return func(l *Ledger) { l.reminder = r }
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func New(events repository.EventRepository, users Users, opts ...Option) *Ledger {
	l := &Ledger{
		events: events,
		users:  users,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("component", "ledger")
	return l
}

type CreateEventInput struct {
	Name           string
	Icon           string
	IconBgColor    string
	GroupID        *uint
	Total          decimal.Decimal
	ParticipantIDs []uint
	CreatorID      uint
}

type UpdateEventInput struct {
	Name        *string
	Icon        *string
	IconBgColor *string
	Total       *decimal.Decimal
}

// participantSet collapses duplicates, keeping first occurrences, and puts
// the creator first when the caller left them out.
func participantSet(ids []uint, creatorID uint) []uint {
	out := make([]uint, 0, len(ids)+1)
	if !slices.Contains(ids, creatorID) {
		out = append(out, creatorID)
	}
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (l *Ledger) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "required")
	}
	total := money.RoundTotal(in.Total)
	if !total.IsPositive() {
		return nil, invalid("total", "must be at least 0.01")
	}
	if in.CreatorID == 0 {
		return nil, invalid("creator", "required")
	}

	ids := participantSet(in.ParticipantIDs, in.CreatorID)
	for _, id := range ids {
		if _, err := l.users.Get(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Kind: "user", ID: id}
			}
			return nil, fmt.Errorf("looking up user %d: %w", id, err)
		}
	}

	share := money.RoundShare(total, len(ids))
	now := l.now()

	event := &models.Event{
		Name:         name,
		Icon:         in.Icon,
		IconBgColor:  in.IconBgColor,
		GroupID:      in.GroupID,
		Total:        total,
		CreatedByID:  in.CreatorID,
		Participants: make([]models.Participant, 0, len(ids)),
		Status:       models.EventPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if event.Icon == "" {
		event.Icon = models.DefaultEventIcon
	}
	if event.IconBgColor == "" {
		event.IconBgColor = models.DefaultEventIconBgColor
	}

	for _, id := range ids {
		p := models.Participant{
			UserID: id,
			Amount: share,
			Status: models.ParticipantPending,
		}
		if id == in.CreatorID {
			paidAt := now
			p.Status = models.ParticipantPaid
			p.PaidAt = &paidAt
		}
		event.Participants = append(event.Participants, p)
	}
	// A solo event has nobody left to collect from.
	if event.AllPaid() {
		event.Status = models.EventSettled
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("saving event: %w", err)
	}

	l.log.Info("event created",
		"event_id", event.ID,
		"total", total.StringFixed(money.Places),
		"share", share.StringFixed(money.Places),
		"participants", len(ids))
	return event, nil
}

// load must be called with l.mu held.
func (l *Ledger) load(ctx context.Context, eventID uint) (*models.Event, error) {
	event, err := l.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Kind: "event", ID: eventID}
		}
		return nil, fmt.Errorf("loading event %d: %w", eventID, err)
	}
	return event, nil
}

// MarkParticipantPaid records a payment for one participant. Paying the last
// pending participant settles the event.
func (l *Ledger) MarkParticipantPaid(ctx context.Context, eventID, participantID uint, paymentMethod string) (*models.Participant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event, err := l.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	p := event.Participant(participantID)
	if p == nil {
		return nil, &NotFoundError{Kind: "participant", ID: participantID}
	}
	if p.Status == models.ParticipantPaid {
		return nil, &ConflictError{Reason: fmt.Sprintf("participant %d has already paid", participantID)}
	}

	now := l.now()
	p.Status = models.ParticipantPaid
	p.PaidAt = &now
	if paymentMethod != "" {
		p.PaymentMethod = paymentMethod
	}
	event.UpdatedAt = now
	if event.Status == models.EventPending && event.AllPaid() {
		event.Status = models.EventSettled
	}

	if err := l.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("saving event %d: %w", eventID, err)
	}

	l.log.Info("participant paid",
		"event_id", eventID,
		"participant_id", participantID,
		"event_status", event.Status)

	out := *event.Participant(participantID)
	return &out, nil
}

// SettleEvent marks every pending participant paid and freezes the event.
// Settling a settled event returns it unchanged.
func (l *Ledger) SettleEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event, err := l.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventSettled {
		return event, nil
	}

	now := l.now()
	forced := 0
	for i := range event.Participants {
		p := &event.Participants[i]
		if p.Status == models.ParticipantPending {
			paidAt := now
			p.Status = models.ParticipantPaid
			p.PaidAt = &paidAt
			forced++
		}
	}
	event.Status = models.EventSettled
	event.UpdatedAt = now

	if err := l.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("saving event %d: %w", eventID, err)
	}

	l.log.Info("event settled", "event_id", eventID, "forced_payments", forced)
	return event, nil
}

// UpdateEvent amends display fields and the total. Existing participant
// shares are kept as they are, so after a total change the shares no longer
// add up to it. Status is never touched.
func (l *Ledger) UpdateEvent(ctx context.Context, eventID uint, in UpdateEventInput) (*models.Event, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "must not be empty")
	}
	var total *decimal.Decimal
	if in.Total != nil {
		rounded := money.RoundTotal(*in.Total)
		if !rounded.IsPositive() {
			return nil, invalid("total", "must be at least 0.01")
		}
		total = &rounded
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	event, err := l.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		event.Name = strings.TrimSpace(*in.Name)
	}
	if in.Icon != nil {
		event.Icon = *in.Icon
	}
	if in.IconBgColor != nil {
		event.IconBgColor = *in.IconBgColor
	}
	if total != nil {
		event.Total = *total
	}
	event.UpdatedAt = l.now()

	if err := l.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("saving event %d: %w", eventID, err)
	}

	l.log.Info("event updated", "event_id", eventID)
	return event, nil
}

func (l *Ledger) DeleteEvent(ctx context.Context, eventID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.events.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Kind: "event", ID: eventID}
		}
		return fmt.Errorf("deleting event %d: %w", eventID, err)
	}

	l.log.Info("event deleted", "event_id", eventID)
	return nil
}

// RemindPending returns how many participants still owe their share and
// passes them to the configured Reminder. Delivery failures are logged only.
func (l *Ledger) RemindPending(ctx context.Context, eventID uint) (int, error) {
	l.mu.Lock()
	event, err := l.load(ctx, eventID)
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}

	var pending []models.Participant
	for _, p := range event.Participants {
		if p.Status == models.ParticipantPending {
			pending = append(pending, p)
		}
	}

	if l.reminder != nil && len(pending) > 0 {
		if err := l.reminder.RemindPending(ctx, *event, pending); err != nil {
			l.log.Warn("⚠️  reminder delivery failed", "event_id", eventID, "error", err)
		}
	}

	l.log.Info("reminder sent", "event_id", eventID, "event", event.Name, "pending", len(pending))
	return len(pending), nil
}

func (l *Ledger) GetEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx, eventID)
}

func (l *Ledger) ListEvents(ctx context.Context) ([]models.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// DefaultRecentLimit is used when RecentEvents gets a non-positive limit.
const DefaultRecentLimit = 10

// RecentEvents returns the events userID created or takes part in, newest
// first.
func (l *Ledger) RecentEvents(ctx context.Context, userID uint, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	events, err := l.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	mine := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.CreatedByID == userID || e.ParticipantFor(userID) != nil {
			mine = append(mine, e)
		}
	}
	slices.SortStableFunc(mine, func(a, b models.Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}
