package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/mail"
)

func TestSendToLead_RejectsBlankContent(t *testing.T) {
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})

	tests := []struct {
		name    string
		subject string
		body    string
		field   string
	}{
		{"empty subject", "", "body", "subject"},
		{"blank subject", "   ", "body", "subject"},
		{"empty body", "Hello", "", "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := f.sender.SendToLead(context.Background(), &lead, tt.subject, tt.body)

			require.Error(t, err)
			assert.Nil(t, rec)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Equal(t, 0, f.interactions.Count())
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendToLead_Success(t *testing.T) {
	ctx := context.Background()
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})

	f.transport.On("Send", mock.Anything, mail.Message{
		To:      "jean@example.com",
		Subject: "Votre devis",
		Text:    "Bonjour\nJean",
		HTML:    "Bonjour<br>Jean",
	}).Return("<abc@example.com>", nil).Once()

	rec, err := f.sender.SendToLead(ctx, &lead, "Votre devis", "Bonjour\nJean")

	require.NoError(t, err)
	assert.Equal(t, entity.InteractionCompleted, rec.Status)
	assert.Equal(t, entity.InteractionEmail, rec.Type)
	assert.Equal(t, entity.DirectionOutbound, rec.Direction)
	assert.Equal(t, "<abc@example.com>", rec.MessageID)
	assert.Empty(t, rec.Reason)

	history, err := f.interactions.ListByLead(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)

	stored, err := f.leads.FindByID(ctx, "L1")
	require.NoError(t, err)
	require.NotNil(t, stored.LastContactedAt)

	f.transport.AssertExpectations(t)
	f.events.AssertCalled(t, "PublishInteraction", mock.Anything, *rec)
}

func TestSendToLead_TransportFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})

	f.transport.On("Send", mock.Anything, mock.Anything).
		Return("", &mail.Error{Kind: mail.KindAuthFailed, Err: errors.New("535 bad credentials")})

	rec, err := f.sender.SendToLead(ctx, &lead, "Subject", "Body")

	require.NoError(t, err)
	assert.Equal(t, entity.InteractionFailed, rec.Status)
	assert.Equal(t, "AuthFailed", rec.Reason)
	assert.Contains(t, rec.Error, "535 bad credentials")
	assert.Equal(t, 1, f.interactions.Count())

	stored, err := f.leads.FindByID(ctx, "L1")
	require.NoError(t, err)
	assert.Nil(t, stored.LastContactedAt)
}

func TestSendToLead_UnclassifiedFailure(t *testing.T) {
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})
	f.transport.On("Send", mock.Anything, mock.Anything).Return("", errors.New("load relay config: db down"))

	rec, err := f.sender.SendToLead(context.Background(), &lead, "Subject", "Body")

	require.NoError(t, err)
	assert.Equal(t, entity.InteractionFailed, rec.Status)
	assert.Equal(t, unknownFailure, rec.Reason)
}

func TestSendToLead_RepeatedCallsAreNotDeduplicated(t *testing.T) {
	ctx := context.Background()
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<id@example.com>", nil)

	first, err := f.sender.SendToLead(ctx, &lead, "Same", "Same body")
	require.NoError(t, err)
	second, err := f.sender.SendToLead(ctx, &lead, "Same", "Same body")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, f.interactions.Count())
	f.transport.AssertNumberOfCalls(t, "Send", 2)
}

func TestSendToLead_AppendFailureIsReturned(t *testing.T) {
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<id@example.com>", nil)
	f.sender.Interactions = failingInteractionRepo{}

	rec, err := f.sender.SendToLead(context.Background(), &lead, "Subject", "Body")

	assert.Nil(t, rec)
	require.Error(t, err)
	assert.True(t, IsTechnicalError(err))
}

func TestSendToLead_PublishFailureDoesNotChangeOutcome(t *testing.T) {
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<id@example.com>", nil)

	events := new(MockInteractionPublisher)
	events.On("PublishInteraction", mock.Anything, mock.Anything).Return(errors.New("channel closed"))
	f.sender.Events = events

	rec, err := f.sender.SendToLead(context.Background(), &lead, "Subject", "Body")

	require.NoError(t, err)
	assert.Equal(t, entity.InteractionCompleted, rec.Status)
	events.AssertNumberOfCalls(t, "PublishInteraction", 1)
}

func TestSendToLead_WithoutPublisher(t *testing.T) {
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<id@example.com>", nil)
	f.sender.Events = nil

	rec, err := f.sender.SendToLead(context.Background(), &lead, "Subject", "Body")

	require.NoError(t, err)
	assert.Equal(t, entity.InteractionCompleted, rec.Status)
}

func TestSendToLeadID_UnknownLead(t *testing.T) {
	f := newFixture(nil)

	_, err := f.sender.SendToLeadID(context.Background(), "missing", "Subject", "Body")

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "LEAD_NOT_FOUND", de.Code)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestSendDirect(t *testing.T) {
	f := newFixture(nil)

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.sender.SendDirect(context.Background(), DirectSendInput{To: "a@example.com"})

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
		assert.Equal(t, "subject", verrs[0].Field)
	})

	t.Run("passes html through", func(t *testing.T) {
		f.transport.On("Send", mock.Anything, mail.Message{
			To: "a@example.com", Subject: "Test", Text: "Body", HTML: "<p>Body</p>",
		}).Return("<x@example.com>", nil).Once()

		id, err := f.sender.SendDirect(context.Background(), DirectSendInput{
			To: "a@example.com", Subject: "Test", Body: "Body", HTMLBody: "<p>Body</p>",
		})

		require.NoError(t, err)
		assert.Equal(t, "<x@example.com>", id)
	})

	t.Run("transport error surfaces", func(t *testing.T) {
		f.transport.On("Send", mock.Anything, toAddress("b@example.com")).
			Return("", &mail.Error{Kind: mail.KindConfigIncomplete, Missing: []string{"host"}}).Once()

		_, err := f.sender.SendDirect(context.Background(), DirectSendInput{To: "b@example.com", Subject: "s", Body: "b"})

		assert.Equal(t, mail.KindConfigIncomplete, mail.KindOf(err))
	})

	assert.Equal(t, 0, f.interactions.Count())
}

func TestDeliver_IgnoresCallerCancellation(t *testing.T) {
	lead := testLead("L1", "Jean", "jean@example.com")
	f := newFixture([]entity.Lead{lead})
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	f.transport.On("Send", live, mock.Anything).Return("<1@example.com>", nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := f.sender.SendToLead(ctx, &lead, "Hello", "Body")

	require.NoError(t, err)
	assert.Equal(t, entity.InteractionCompleted, rec.Status)
	assert.Equal(t, 1, f.interactions.Count())
	f.transport.AssertExpectations(t)
}
