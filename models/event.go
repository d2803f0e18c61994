package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventPending EventStatus = "pending"
	EventSettled EventStatus = "settled"
)

type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "pending"
	ParticipantPaid    ParticipantStatus = "paid"
)

const (
	DefaultEventIcon        = "restaurant"
	DefaultEventIconBgColor = "#7c4dff"
)

// Event is a shared bill whose fixed total is split among its participants.
type Event struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;size:255" json:"name"`
	Icon         string          `gorm:"size:50" json:"icon"`
	IconBgColor  string          `gorm:"size:7" json:"iconBgColor"`
	GroupID      *uint           `gorm:"index" json:"groupId"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	CreatedByID  uint            `gorm:"index;not null" json:"createdById"`
	Participants []Participant   `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"participants"`
	Status       EventStatus     `gorm:"not null;size:10;default:pending" json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Participant is one user's stake in an Event.
type Participant struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	EventID       uint              `gorm:"index;not null" json:"-"`
	UserID        uint              `gorm:"index;not null" json:"userId"`
	Amount        decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status        ParticipantStatus `gorm:"not null;size:10;default:pending" json:"status"`
	PaymentMethod string            `gorm:"size:50" json:"paymentMethod"`
	PaidAt        *time.Time        `json:"paidAt"`
}

// Participant returns the entry with the given participant id.
func (e *Event) Participant(id uint) *Participant {
	for i := range e.Participants {
		if e.Participants[i].ID == id {
			return &e.Participants[i]
		}
	}
	return nil
}

// ParticipantFor returns the entry belonging to userID.
func (e *Event) ParticipantFor(userID uint) *Participant {
	for i := range e.Participants {
		if e.Participants[i].UserID == userID {
			return &e.Participants[i]
		}
	}
	return nil
}

// AllPaid reports whether no participant is still pending.
func (e *Event) AllPaid() bool {
	for _, p := range e.Participants {
		if p.Status != ParticipantPaid {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to mutate.
func (e Event) Clone() Event {
	out := e
	if e.GroupID != nil {
		g := *e.GroupID
		out.GroupID = &g
	}
	out.Participants = make([]Participant, len(e.Participants))
	for i, p := range e.Participants {
		if p.PaidAt != nil {
			t := *p.PaidAt
			p.PaidAt = &t
		}
		out.Participants[i] = p
	}
	return out
}

// Request structs
type CreateEventRequest struct {
	Name           string          `json:"name" binding:"required"`
	Icon           string          `json:"icon"`
	IconBgColor    string          `json:"iconBgColor"`
	GroupID        *uint           `json:"groupId"`
	Total          decimal.Decimal `json:"total"`
	ParticipantIDs []uint          `json:"participantIds" binding:"required"`
}

type UpdateEventRequest struct {
	Name        *string          `json:"name"`
	Icon        *string          `json:"icon"`
	IconBgColor *string          `json:"iconBgColor"`
	Total       *decimal.Decimal `json:"total"`
}

type PayParticipantRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

// Response structs
type ParticipantResponse struct {
	ID            uint              `json:"id"`
	UserID        uint              `json:"userId"`
	Name          string            `json:"name"`
	Initials      string            `json:"initials"`
	AvatarColor   string            `json:"avatarColor"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        ParticipantStatus `json:"status"`
	PaymentMethod string            `json:"paymentMethod"`
	PaidAt        *time.Time        `json:"paidAt"`
}

type EventResponse struct {
	ID               uint                  `json:"id"`
	Name             string                `json:"name"`
	Icon             string                `json:"icon"`
	IconBgColor      string                `json:"iconBgColor"`
	GroupID          *uint                 `json:"groupId"`
	GroupName        *string               `json:"groupName"`
	Total            decimal.Decimal       `json:"total"`
	MyShare          decimal.Decimal       `json:"myShare"`
	Status           EventStatus           `json:"status"`
	ParticipantCount int                   `json:"participantCount"`
	Participants     []ParticipantResponse `json:"participants"`
	CreatedByID      uint                  `json:"createdById"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}
