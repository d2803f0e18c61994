package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"splitfree/models"
	"splitfree/repository"
)

// Pool records the simple expense model: people and the bills one of them
// paid for a set of participants.
type Pool struct {
	mu       sync.Mutex
	people   repository.PersonRepository
	expenses repository.ExpenseRepository
	log      *slog.Logger
}

func NewPool(people repository.PersonRepository, expenses repository.ExpenseRepository, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		people:   people,
		expenses: expenses,
		log:      log.With("component", "pool"),
	}
}

type AddExpenseInput struct {
	Description  string
	Amount       decimal.Decimal
	PayerID      uint
	Participants []uint
}

func (p *Pool) AddPerson(ctx context.Context, name string) (*models.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	person := &models.Person{Name: name}
	if err := p.people.Create(ctx, person); err != nil {
		return nil, fmt.Errorf("saving person: %w", err)
	}
	return person, nil
}

func (p *Pool) ListPeople(ctx context.Context) ([]models.Person, error) {
	people, err := p.people.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	return people, nil
}

func (p *Pool) AddExpense(ctx context.Context, in AddExpenseInput) (*models.Expense, error) {
	description := strings.TrimSpace(in.Description)
	switch {
	case description == "":
		return nil, invalid("description", "required")
	case !in.Amount.IsPositive():
		return nil, invalid("amount", "must be greater than 0")
	case in.PayerID == 0:
		return nil, invalid("payerId", "required")
	case len(in.Participants) == 0:
		return nil, invalid("participants", "must not be empty")
	}

	participants := make([]uint, 0, len(in.Participants))
	for _, id := range in.Participants {
		if !slices.Contains(participants, id) {
			participants = append(participants, id)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range append([]uint{in.PayerID}, participants...) {
		if _, err := p.people.Get(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Kind: "person", ID: id}
			}
			return nil, fmt.Errorf("looking up person %d: %w", id, err)
		}
	}

	expense := &models.Expense{
		Description:  description,
		Amount:       in.Amount,
		PayerID:      in.PayerID,
		Participants: participants,
	}
	if err := p.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}

	p.log.Info("expense added", "expense_id", expense.ID, "amount", expense.Amount.String(), "participants", len(participants))
	return expense, nil
}

func (p *Pool) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	expenses, err := p.expenses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}
