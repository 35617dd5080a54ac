package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusNegotiating LeadStatus = "negotiating"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusRejected    LeadStatus = "rejected"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusNegotiating, LeadStatusConverted, LeadStatusRejected:
		return true
	}
	return false
}

type Lead struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Profession      string     `json:"profession,omitempty"`
	Company         string     `json:"company,omitempty"`
	Status          LeadStatus `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewLead builds a lead captured from the public form. The form message is
// kept as the first notes entry.
func NewLead(firstName, lastName, email, phone, profession, message string) (*Lead, error) {
	now := time.Now().UTC()
	lead := &Lead{
		ID:         uuid.New().String(),
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Email:      strings.TrimSpace(email),
		Phone:      strings.TrimSpace(phone),
		Profession: strings.TrimSpace(profession),
		Status:     LeadStatusNew,
		Notes:      message,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

func (l *Lead) Validate() error {
	if l.FirstName == "" {
		return errors.New("first_name is required")
	}
	if l.LastName == "" {
		return errors.New("last_name is required")
	}
	if l.Email == "" {
		return errors.New("email is required")
	}
	if !l.Status.Valid() {
		return errors.New("status is invalid")
	}
	return nil
}

// LeadFilter narrows ListLeads. Zero value lists everything.
type LeadFilter struct {
	Status LeadStatus
}

// LeadUpdate carries the admin-editable fields; nil means unchanged.
type LeadUpdate struct {
	Status *LeadStatus `json:"status,omitempty"`
	Notes  *string     `json:"notes,omitempty"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// FindByIDs returns the leads that exist among ids; missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	Update(ctx context.Context, id string, upd LeadUpdate) (*Lead, error)
	Delete(ctx context.Context, id string) error
	TouchLastContacted(ctx context.Context, id string, at time.Time) error
}
