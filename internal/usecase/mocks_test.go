package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/mail"
	"github.com/xavierca1/leadmail/internal/infra/memory"
)

type MockMailTransport struct {
	mock.Mock
}

func (m *MockMailTransport) Send(ctx context.Context, msg mail.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type MockInteractionPublisher struct {
	mock.Mock
}

func (m *MockInteractionPublisher) PublishInteraction(ctx context.Context, rec entity.Interaction) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type failingInteractionRepo struct{}

func (failingInteractionRepo) Append(context.Context, *entity.Interaction) error {
	return errors.New("connection reset by peer")
}

func (failingInteractionRepo) ListByLead(context.Context, string) ([]entity.Interaction, error) {
	return nil, nil
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func toAddress(addr string) any {
	return mock.MatchedBy(func(m mail.Message) bool { return m.To == addr })
}

func testLead(id, first, email string) entity.Lead {
	return entity.Lead{
		ID:        id,
		FirstName: first,
		LastName:  "Dupont",
		Email:     email,
		Status:    entity.LeadStatusNew,
		CreatedAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	transport    *MockMailTransport
	events       *MockInteractionPublisher
	leads        *memory.LeadRepo
	templates    *memory.TemplateRepo
	interactions *memory.InteractionRepo
	sender       *SendEmailUseCase
	bulk         *BulkDispatchUseCase
}

func newFixture(leads []entity.Lead, templates ...entity.EmailTemplate) *fixture {
	f := &fixture{
		transport:    new(MockMailTransport),
		events:       new(MockInteractionPublisher),
		leads:        memory.NewLeadRepo(leads...),
		templates:    memory.NewTemplateRepo(templates...),
		interactions: memory.NewInteractionRepo(),
	}
	f.events.On("PublishInteraction", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.sender = NewSendEmailUseCase(f.transport, f.leads, f.interactions, f.events, nullLogger())
	f.bulk = NewBulkDispatchUseCase(f.templates, f.leads, f.sender, 2, nullLogger())
	f.bulk.now = func() time.Time { return time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) }
	return f
}
