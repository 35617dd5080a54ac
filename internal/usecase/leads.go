package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/entity"
)

type CaptureLeadInput struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,max=30"`
	Profession string `json:"profession" validate:"required,max=100"`
	Message    string `json:"message" validate:"max=2000"`
}

type UpdateLeadInput struct {
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified negotiating converted rejected"`
	Notes  *string `json:"notes,omitempty"`
}

// LeadUseCase covers the lead records the dispatcher mails to, plus their
// interaction history.
type LeadUseCase struct {
	Leads        entity.LeadRepositoryInterface
	Templates    entity.TemplateRepositoryInterface
	Interactions entity.InteractionRepository
	Log          logrus.FieldLogger
}

func NewLeadUseCase(
	leads entity.LeadRepositoryInterface,
	templates entity.TemplateRepositoryInterface,
	interactions entity.InteractionRepository,
	log logrus.FieldLogger,
) *LeadUseCase {
	return &LeadUseCase{Leads: leads, Templates: templates, Interactions: interactions, Log: log}
}

func (uc *LeadUseCase) Capture(ctx context.Context, in CaptureLeadInput) (*entity.Lead, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	lead, err := entity.NewLead(in.FirstName, in.LastName, strings.ToLower(in.Email), in.Phone, in.Profession, in.Message)
	if err != nil {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: err.Error(), Err: err}
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, &DomainError{Code: "EMAIL_ALREADY_EXISTS", Message: err.Error(), Err: err}
		}
		return nil, storeError("create lead", err)
	}

	uc.Log.WithField("lead_id", lead.ID).Info("lead captured")
	return lead, nil
}

func (uc *LeadUseCase) List(ctx context.Context, status string) ([]entity.Lead, error) {
	filter := entity.LeadFilter{Status: entity.LeadStatus(status)}
	if status != "" && !filter.Status.Valid() {
		return nil, ValidationError{"status", "is invalid"}
	}

	leads, err := uc.Leads.List(ctx, filter)
	if err != nil {
		return nil, storeError("list leads", err)
	}
	return leads, nil
}

func (uc *LeadUseCase) Update(ctx context.Context, id string, in UpdateLeadInput) (*entity.Lead, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	var upd entity.LeadUpdate
	if in.Status != nil {
		s := entity.LeadStatus(*in.Status)
		upd.Status = &s
	}
	upd.Notes = in.Notes

	lead, err := uc.Leads.Update(ctx, id, upd)
	if err != nil {
		return nil, leadLookupError("update lead", err)
	}
	return lead, nil
}

func (uc *LeadUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.Leads.Delete(ctx, id); err != nil {
		return leadLookupError("delete lead", err)
	}
	uc.Log.WithField("lead_id", id).Info("lead deleted")
	return nil
}

// History returns the lead's interactions, most recent first.
func (uc *LeadUseCase) History(ctx context.Context, leadID string) ([]entity.Interaction, error) {
	if _, err := uc.Leads.FindByID(ctx, leadID); err != nil {
		return nil, leadLookupError("load lead", err)
	}

	recs, err := uc.Interactions.ListByLead(ctx, leadID)
	if err != nil {
		return nil, storeError("list interactions", err)
	}
	return recs, nil
}

func (uc *LeadUseCase) ListTemplates(ctx context.Context) ([]entity.EmailTemplate, error) {
	templates, err := uc.Templates.FindAll(ctx)
	if err != nil {
		return nil, storeError("list templates", err)
	}
	return templates, nil
}

func leadLookupError(op string, err error) error {
	if errors.Is(err, entity.ErrNotFound) {
		return &DomainError{Code: "LEAD_NOT_FOUND", Message: "lead not found", Err: err}
	}
	return storeError(op, err)
}
