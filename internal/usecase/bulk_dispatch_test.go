package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/mail"
)

var welcomeTemplate = entity.EmailTemplate{
	ID:      "T1",
	Name:    "Bienvenue",
	Subject: "Bonjour {{first_name}}",
	Body:    "Cher {{first_name}} {{last_name}},\nle {{today}}.",
}

func threeLeads() []entity.Lead {
	return []entity.Lead{
		testLead("L1", "Jean", "jean@example.com"),
		testLead("L2", "Marie", "marie@example.com"),
		testLead("L3", "Paul", "paul@example.com"),
	}
}

func TestDispatch_IsolatesRecipientFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(threeLeads(), welcomeTemplate)

	f.transport.On("Send", mock.Anything, toAddress("jean@example.com")).Return("<1@example.com>", nil)
	f.transport.On("Send", mock.Anything, toAddress("marie@example.com")).
		Return("", &mail.Error{Kind: mail.KindTimeout, Err: errors.New("i/o timeout")})
	f.transport.On("Send", mock.Anything, toAddress("paul@example.com")).Return("<3@example.com>", nil)

	report, err := f.bulk.Dispatch(ctx, BulkDispatchInput{
		AutomationID: "A1",
		TemplateID:   "T1",
		LeadIDs:      []string{"L1", "L2", "L3"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.SentCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, "2 emails sent, 1 failed", report.Message)

	assert.Equal(t, []RecipientOutcome{
		{LeadID: "L1", Email: "jean@example.com", Status: "sent"},
		{LeadID: "L3", Email: "paul@example.com", Status: "sent"},
	}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "L2", report.Failed[0].LeadID)
	assert.Equal(t, "marie@example.com", report.Failed[0].Email)
	assert.Contains(t, report.Failed[0].Error, "Timeout")

	for id, want := range map[string]entity.InteractionStatus{
		"L1": entity.InteractionCompleted,
		"L2": entity.InteractionFailed,
		"L3": entity.InteractionCompleted,
	} {
		history, err := f.interactions.ListByLead(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 1, id)
		assert.Equal(t, want, history[0].Status, id)
	}
}

func TestDispatch_RendersPerLead(t *testing.T) {
	f := newFixture(threeLeads()[:1], welcomeTemplate)
	f.transport.On("Send", mock.Anything, mail.Message{
		To:      "jean@example.com",
		Subject: "Bonjour Jean",
		Text:    "Cher Jean Dupont,\nle 15/10/2026.",
		HTML:    "Cher Jean Dupont,<br>le 15/10/2026.",
	}).Return("<1@example.com>", nil).Once()

	report, err := f.bulk.Dispatch(context.Background(), BulkDispatchInput{TemplateID: "T1", LeadIDs: []string{"L1"}})

	require.NoError(t, err)
	assert.Equal(t, 1, report.SentCount)
	f.transport.AssertExpectations(t)

	history, _ := f.interactions.ListByLead(context.Background(), "L1")
	require.Len(t, history, 1)
	assert.Equal(t, "Bonjour Jean", history[0].Subject)
}

func TestDispatch_CountsEveryDistinctID(t *testing.T) {
	f := newFixture(threeLeads(), welcomeTemplate)
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<ok@example.com>", nil)

	report, err := f.bulk.Dispatch(context.Background(), BulkDispatchInput{
		TemplateID: "T1",
		LeadIDs:    []string{"L1", "L1", "ghost", "L2", "L2"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, report.SentCount+report.FailedCount)
	assert.Equal(t, 2, report.SentCount)
	assert.Equal(t, []RecipientOutcome{{LeadID: "ghost", Error: leadNotFoundMessage}}, report.Failed)
	assert.Equal(t, 2, f.interactions.Count())
	f.transport.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatch_InvalidRecipientDoesNotAbort(t *testing.T) {
	leads := threeLeads()
	leads[0].Email = "bad-address"
	f := newFixture(leads, welcomeTemplate)

	f.transport.On("Send", mock.Anything, toAddress("bad-address")).
		Return("", &mail.Error{Kind: mail.KindInvalidRecipient})
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<ok@example.com>", nil)

	report, err := f.bulk.Dispatch(context.Background(), BulkDispatchInput{TemplateID: "T1", LeadIDs: []string{"L1", "L2", "L3"}})

	require.NoError(t, err)
	assert.Equal(t, 2, report.SentCount)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "L1", report.Failed[0].LeadID)
	assert.Equal(t, "InvalidRecipient", report.Failed[0].Error)
	assert.Equal(t, 3, f.interactions.Count())
}

func TestDispatch_Preconditions(t *testing.T) {
	blank := entity.EmailTemplate{ID: "T2", Name: "Vide", Subject: " ", Body: "x"}

	tests := []struct {
		name  string
		input BulkDispatchInput
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown template",
			input: BulkDispatchInput{TemplateID: "nope", LeadIDs: []string{"L1"}},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrTemplateNotFound) },
		},
		{
			name:  "missing template id",
			input: BulkDispatchInput{LeadIDs: []string{"L1"}},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrTemplateNotFound) },
		},
		{
			name:  "empty lead set",
			input: BulkDispatchInput{TemplateID: "T1"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoLeadsFound) },
		},
		{
			name:  "no lead resolves",
			input: BulkDispatchInput{TemplateID: "T1", LeadIDs: []string{"x", "y"}},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoLeadsFound) },
		},
		{
			name:  "blank template subject",
			input: BulkDispatchInput{TemplateID: "T2", LeadIDs: []string{"L1"}},
			check: func(t *testing.T, err error) { assert.True(t, IsValidationError(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(threeLeads(), welcomeTemplate, blank)

			report, err := f.bulk.Dispatch(context.Background(), tt.input)

			assert.Nil(t, report)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, 0, f.interactions.Count())
			f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestDispatch_PreservesRequestOrder(t *testing.T) {
	var leads []entity.Lead
	var ids []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("L%02d", i)
		leads = append(leads, testLead(id, "N", fmt.Sprintf("lead%02d@example.com", i)))
		ids = append(ids, id)
	}
	// Request order differs from store order.
	ids[0], ids[11] = ids[11], ids[0]

	f := newFixture(leads, welcomeTemplate)
	f.transport.On("Send", mock.Anything, mock.Anything).Return("<ok@example.com>", nil)

	report, err := f.bulk.Dispatch(context.Background(), BulkDispatchInput{TemplateID: "T1", LeadIDs: ids})

	require.NoError(t, err)
	require.Len(t, report.Succeeded, 12)
	for i, o := range report.Succeeded {
		assert.Equal(t, ids[i], o.LeadID)
	}
	assert.Empty(t, report.Failed)
	assert.NotNil(t, report.Failed)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, uniqueIDs([]string{"b", "a", "b", " ", "c", "a"}))
	assert.Empty(t, uniqueIDs(nil))

	assert.Equal(t, []string{"6f9619ff-8b86-d011-b42d-00cf4fc964ff"}, uniqueIDs([]string{
		"6F9619FF-8B86-D011-B42D-00CF4FC964FF",
		"{6f9619ff-8b86-d011-b42d-00cf4fc964ff}",
		"6f9619ff-8b86-d011-b42d-00cf4fc964ff",
	}))
}

func TestDispatch_MatchesUpperCaseLeadIDs(t *testing.T) {
	const id = "6f9619ff-8b86-d011-b42d-00cf4fc964ff"
	f := newFixture([]entity.Lead{testLead(id, "Jean", "jean@example.com")}, welcomeTemplate)
	f.transport.On("Send", mock.Anything, toAddress("jean@example.com")).Return("<1@example.com>", nil).Once()

	report, err := f.bulk.Dispatch(context.Background(), BulkDispatchInput{
		TemplateID: "T1",
		LeadIDs:    []string{"6F9619FF-8B86-D011-B42D-00CF4FC964FF"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.SentCount)
	assert.Equal(t, 0, report.FailedCount)
	assert.Equal(t, id, report.Succeeded[0].LeadID)
	assert.Equal(t, 1, f.interactions.Count())
	f.transport.AssertExpectations(t)
}

func TestDispatch_RunsToCompletionAfterCallerCancels(t *testing.T) {
	f := newFixture(threeLeads(), welcomeTemplate)
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	f.transport.On("Send", live, mock.Anything).Return("<1@example.com>", nil).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.bulk.Dispatch(ctx, BulkDispatchInput{
		TemplateID: "T1",
		LeadIDs:    []string{"L1", "L2", "L3"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, report.SentCount)
	assert.Equal(t, 3, f.interactions.Count())
	f.transport.AssertExpectations(t)
}
