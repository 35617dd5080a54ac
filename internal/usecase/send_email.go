package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/mail"
	"github.com/xavierca1/leadmail/internal/infra/metrics"
)

const unknownFailure = "Unknown"

type SendEmailUseCase struct {
	Transport    MailTransport
	Leads        entity.LeadRepositoryInterface
	Interactions entity.InteractionRepository
	Events       InteractionPublisher
	Log          logrus.FieldLogger

	now func() time.Time
}

func NewSendEmailUseCase(
	transport MailTransport,
	leads entity.LeadRepositoryInterface,
	interactions entity.InteractionRepository,
	events InteractionPublisher,
	log logrus.FieldLogger,
) *SendEmailUseCase {
	return &SendEmailUseCase{
		Transport:    transport,
		Leads:        leads,
		Interactions: interactions,
		Events:       events,
		Log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SendToLeadID looks the lead up and sends it a one-off email.
func (uc *SendEmailUseCase) SendToLeadID(ctx context.Context, leadID, subject, body string) (*entity.Interaction, error) {
	if err := validateContent(subject, body); err != nil {
		return nil, err
	}

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, leadLookupError("load lead", err)
	}

	return uc.SendToLead(ctx, lead, subject, body)
}

// SendToLead rejects blank content without side effects. Otherwise it behaves
// like Deliver.
func (uc *SendEmailUseCase) SendToLead(ctx context.Context, lead *entity.Lead, subject, body string) (*entity.Interaction, error) {
	if err := validateContent(subject, body); err != nil {
		return nil, err
	}
	return uc.Deliver(ctx, lead, subject, body)
}

// Deliver sends an already rendered message and records the attempt. A
// transport failure is reported through the returned record; only a failure
// to append the record is returned as an error. Caller cancellation does not
// interrupt the send or its recording.
func (uc *SendEmailUseCase) Deliver(ctx context.Context, lead *entity.Lead, subject, body string) (*entity.Interaction, error) {
	ctx = context.WithoutCancel(ctx)
	log := uc.Log.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"to":      lead.Email,
	})

	messageID, sendErr := uc.Transport.Send(ctx, mail.Message{
		To:      lead.Email,
		Subject: subject,
		Text:    body,
		HTML:    TextToHTML(body),
	})

	rec := entity.NewOutboundEmail(lead.ID, subject, body, uc.now())
	if sendErr != nil {
		rec.Status = entity.InteractionFailed
		rec.Reason = string(mail.KindOf(sendErr))
		if rec.Reason == "" {
			rec.Reason = unknownFailure
		}
		rec.Error = sendErr.Error()
	} else {
		rec.Status = entity.InteractionCompleted
		rec.MessageID = messageID
	}

	if err := uc.Interactions.Append(ctx, rec); err != nil {
		log.WithError(err).Error("failed to record interaction")
		return nil, storeError("record interaction", err)
	}

	if rec.Status == entity.InteractionCompleted {
		if err := uc.Leads.TouchLastContacted(ctx, lead.ID, rec.CreatedAt); err != nil {
			log.WithError(err).Warn("failed to update last_contacted_at")
		}
	} else {
		log.WithFields(logrus.Fields{"kind": rec.Reason, "error": rec.Error}).Warn("email not sent")
	}

	uc.publish(ctx, rec, log)
	return rec, nil
}

func (uc *SendEmailUseCase) publish(ctx context.Context, rec *entity.Interaction, log logrus.FieldLogger) {
	if uc.Events == nil {
		return
	}
	if err := uc.Events.PublishInteraction(ctx, *rec); err != nil {
		metrics.RecordEventPublishError()
		log.WithError(err).Warn("failed to publish interaction event")
	}
}

func validateContent(subject, body string) error {
	if err := requireText("subject", subject); err != nil {
		return err
	}
	return requireText("body", body)
}

type DirectSendInput struct {
	To       string `json:"to" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Body     string `json:"body" validate:"required"`
	HTMLBody string `json:"htmlBody,omitempty"`
}

// SendDirect sends an ad-hoc message that is not tied to a lead, used to
// check the relay settings. Nothing is recorded.
func (uc *SendEmailUseCase) SendDirect(ctx context.Context, in DirectSendInput) (string, error) {
	if err := ValidateStruct(in); err != nil {
		return "", err
	}

	messageID, err := uc.Transport.Send(ctx, mail.Message{
		To:      in.To,
		Subject: in.Subject,
		Text:    in.Body,
		HTML:    in.HTMLBody,
	})
	if err != nil {
		uc.Log.WithError(err).WithField("to", in.To).Warn("direct send failed")
		return "", err
	}
	return messageID, nil
}
