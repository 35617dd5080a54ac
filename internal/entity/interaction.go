package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InteractionType string

const (
	InteractionEmail          InteractionType = "email"
	InteractionCall           InteractionType = "call"
	InteractionMeeting        InteractionType = "meeting"
	InteractionMessage        InteractionType = "message"
	InteractionFormSubmission InteractionType = "form_submission"
)

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

type InteractionStatus string

const (
	InteractionCompleted InteractionStatus = "completed"
	InteractionFailed    InteractionStatus = "failed"
	InteractionPending   InteractionStatus = "pending"
)

// Interaction is an immutable log entry of one communication attempt.
type Interaction struct {
	ID        string            `json:"id"`
	LeadID    string            `json:"lead_id"`
	Type      InteractionType   `json:"type"`
	Direction Direction         `json:"direction"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Status    InteractionStatus `json:"status"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	MessageID string            `json:"message_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewOutboundEmail(leadID, subject, body string, at time.Time) *Interaction {
	return &Interaction{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Type:      InteractionEmail,
		Direction: DirectionOutbound,
		Subject:   subject,
		Body:      body,
		Status:    InteractionPending,
		CreatedAt: at,
	}
}

// InteractionRepository is append-only. ListByLead returns most recent first,
// ties broken by insertion order.
type InteractionRepository interface {
	Append(ctx context.Context, rec *Interaction) error
	ListByLead(ctx context.Context, leadID string) ([]Interaction, error)
}
