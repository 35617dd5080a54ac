package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/metrics"
)

const (
	DefaultDispatchConcurrency = 4
	leadNotFoundMessage        = "lead not found"
)

type BulkDispatchInput struct {
	AutomationID string   `json:"automationId"`
	TemplateID   string   `json:"templateId"`
	LeadIDs      []string `json:"leadIds"`
}

type RecipientOutcome struct {
	LeadID string `json:"leadId"`
	Email  string `json:"email"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BulkReport summarizes one dispatch. SentCount+FailedCount equals the
// number of distinct requested lead ids.
type BulkReport struct {
	SentCount   int                `json:"sent_count"`
	FailedCount int                `json:"failed_count"`
	Message     string             `json:"message"`
	Succeeded   []RecipientOutcome `json:"sentEmails"`
	Failed      []RecipientOutcome `json:"failedEmails"`
}

type BulkDispatchUseCase struct {
	Templates   entity.TemplateRepositoryInterface
	Leads       entity.LeadRepositoryInterface
	Sender      *SendEmailUseCase
	Concurrency int
	Log         logrus.FieldLogger

	now func() time.Time
}

func NewBulkDispatchUseCase(
	templates entity.TemplateRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	sender *SendEmailUseCase,
	concurrency int,
	log logrus.FieldLogger,
) *BulkDispatchUseCase {
	if concurrency < 1 {
		concurrency = DefaultDispatchConcurrency
	}
	return &BulkDispatchUseCase{
		Templates:   templates,
		Leads:       leads,
		Sender:      sender,
		Concurrency: concurrency,
		Log:         log,
		now:         time.Now,
	}
}

type outcome struct {
	lead   *entity.Lead
	leadID string
	rec    *entity.Interaction
	err    error
}

// Dispatch renders the template for every requested lead and sends it.
// Precondition failures abort before anything is recorded; per-lead
// failures end up in the report. Once started, a dispatch runs to completion
// even if the caller goes away.
func (uc *BulkDispatchUseCase) Dispatch(ctx context.Context, in BulkDispatchInput) (*BulkReport, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	ids := uniqueIDs(in.LeadIDs)

	log := uc.Log.WithFields(logrus.Fields{
		"automation_id": in.AutomationID,
		"template_id":   in.TemplateID,
		"lead_count":    len(ids),
	})

	tmpl, err := uc.loadTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}

	leads, err := uc.loadLeads(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.Lead, len(leads))
	for i := range leads {
		byID[leads[i].ID] = &leads[i]
	}

	today := TodayString(uc.now())
	outcomes := make([]outcome, len(ids))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(uc.Concurrency)

	for i, id := range ids {
		i, id := i, id
		lead, ok := byID[id]
		if !ok {
			outcomes[i] = outcome{leadID: id, err: errors.New(leadNotFoundMessage)}
			continue
		}

		g.Go(func() error {
			rendered := RenderTemplate(*tmpl, LeadVariables(*lead, today))
			rec, err := uc.Sender.Deliver(ctx, lead, rendered.Subject, rendered.Body)

			mu.Lock()
			outcomes[i] = outcome{lead: lead, leadID: id, rec: rec, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := buildReport(outcomes)
	metrics.RecordDispatch(time.Since(start).Seconds(), report.SentCount, report.FailedCount)

	log.WithFields(logrus.Fields{
		"sent":   report.SentCount,
		"failed": report.FailedCount,
	}).Info("dispatch finished")

	return report, nil
}

func (uc *BulkDispatchUseCase) loadTemplate(ctx context.Context, id string) (*entity.EmailTemplate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &DomainError{Code: "TEMPLATE_NOT_FOUND", Message: ErrTemplateNotFound.Error(), Err: ErrTemplateNotFound}
	}

	tmpl, err := uc.Templates.FindByID(ctx, id)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, &DomainError{Code: "TEMPLATE_NOT_FOUND", Message: ErrTemplateNotFound.Error(), Err: ErrTemplateNotFound}
	}
	if err != nil {
		return nil, storeError("load template", err)
	}

	if err := validateContent(tmpl.Subject, tmpl.Body); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (uc *BulkDispatchUseCase) loadLeads(ctx context.Context, ids []string) ([]entity.Lead, error) {
	if len(ids) == 0 {
		return nil, &DomainError{Code: "NO_LEADS_FOUND", Message: ErrNoLeadsFound.Error(), Err: ErrNoLeadsFound}
	}

	leads, err := uc.Leads.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("load leads", err)
	}
	if len(leads) == 0 {
		return nil, &DomainError{Code: "NO_LEADS_FOUND", Message: ErrNoLeadsFound.Error(), Err: ErrNoLeadsFound}
	}
	return leads, nil
}

func buildReport(outcomes []outcome) *BulkReport {
	report := &BulkReport{
		Succeeded: []RecipientOutcome{},
		Failed:    []RecipientOutcome{},
	}

	for _, o := range outcomes {
		entry := RecipientOutcome{LeadID: o.leadID}
		if o.lead != nil {
			entry.Email = o.lead.Email
		}

		switch {
		case o.err != nil:
			entry.Error = o.err.Error()
			report.Failed = append(report.Failed, entry)
		case o.rec.Status == entity.InteractionFailed:
			entry.Error = o.rec.Error
			report.Failed = append(report.Failed, entry)
		default:
			entry.Status = "sent"
			report.Succeeded = append(report.Succeeded, entry)
		}
	}

	report.SentCount = len(report.Succeeded)
	report.FailedCount = len(report.Failed)
	report.Message = fmt.Sprintf("%d emails sent, %d failed", report.SentCount, report.FailedCount)
	return report
}

// uniqueIDs drops blanks and repeats, keeping first-seen order. UUIDs are
// compared in their canonical lower-case form, which is how stores return
// them.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
