package trading

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

func TestApply_CreatesAppliedEntry(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)

	entry := f.apply(t, trade, f.bob)

	assert.Equal(t, models.QueueStatusApplied, entry.Status)
	assert.Equal(t, "bob", entry.Username)
	require.NotNil(t, entry.AppliedAt)
	assert.Nil(t, entry.InvitedAt)
	assert.Nil(t, entry.AcceptedAt)
	assert.Nil(t, entry.RejectedAt)
	assert.Len(t, f.store.queueFor(trade.ID), 1)
	assert.Contains(t, f.events.types(), models.EventQueueApplied)
}

func TestApply_MissingSkillsNamesEachMissingSkill(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar, f.spanish)

	_, err := f.svc.Apply(context.Background(), ApplyRequest{TradeID: trade.ID, UserID: f.bob.ID})

	requireKind(t, err, KindValidation)
	assert.Contains(t, err.Error(), "Spanish")
	assert.NotContains(t, err.Error(), "Guitar")
	te, _ := AsError(err)
	assert.Equal(t, []string{"Spanish"}, te.Fields["missing_skills"])
	assert.Empty(t, f.store.queueFor(trade.ID))
}

func TestApply_Rejections(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)
	f.apply(t, trade, f.bob)
	ctx := context.Background()

	tests := []struct {
		name string
		req  ApplyRequest
		kind ErrorKind
	}{
		{"duplicate", ApplyRequest{TradeID: trade.ID, UserID: f.bob.ID}, KindValidation},
		{"own trade", ApplyRequest{TradeID: trade.ID, UserID: f.alice.ID}, KindValidation},
		{"unknown trade", ApplyRequest{TradeID: uuid.New(), UserID: f.carol.ID}, KindNotFound},
		{"unknown user", ApplyRequest{TradeID: trade.ID, UserID: uuid.New()}, KindNotFound},
		{"missing ids", ApplyRequest{}, KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Apply(ctx, tt.req)
			requireKind(t, err, tt.kind)
		})
	}
	assert.Len(t, f.store.queueFor(trade.ID), 1)
}

func TestApply_TradeNoLongerPending(t *testing.T) {
	f := newFixture(t)
	trade := f.acceptedTrade(t)

	_, err := f.svc.Apply(context.Background(), ApplyRequest{TradeID: trade.ID, UserID: f.carol.ID})

	requireKind(t, err, KindValidation)
}

func TestInvite_CreatesInvitedEntry(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)

	entry, err := f.svc.Invite(context.Background(), InviteRequest{
		TradeID: trade.ID, InitiatorID: f.alice.ID, InviteeID: f.carol.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusInvited, entry.Status)
	require.NotNil(t, entry.InvitedAt)
	assert.Nil(t, entry.AppliedAt)
	assert.Equal(t, f.carol.ID, entry.UserID)
}

func TestInvite_Rejections(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)
	f.apply(t, trade, f.bob)
	ctx := context.Background()

	tests := []struct {
		name string
		req  InviteRequest
		kind ErrorKind
	}{
		{"not initiator", InviteRequest{TradeID: trade.ID, InitiatorID: f.bob.ID, InviteeID: f.carol.ID}, KindAuthorization},
		{"already applied", InviteRequest{TradeID: trade.ID, InitiatorID: f.alice.ID, InviteeID: f.bob.ID}, KindValidation},
		{"lacks skills", InviteRequest{TradeID: trade.ID, InitiatorID: f.alice.ID, InviteeID: f.dave.ID}, KindValidation},
		{"self", InviteRequest{TradeID: trade.ID, InitiatorID: f.alice.ID, InviteeID: f.alice.ID}, KindValidation},
		{"unknown invitee", InviteRequest{TradeID: trade.ID, InitiatorID: f.alice.ID, InviteeID: uuid.New()}, KindNotFound},
		{"unknown trade", InviteRequest{TradeID: uuid.New(), InitiatorID: f.alice.ID, InviteeID: f.carol.ID}, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Invite(ctx, tt.req)
			requireKind(t, err, tt.kind)
		})
	}
	assert.Len(t, f.store.queueFor(trade.ID), 1)
}

func TestDecline_KeepsTradePendingAndPurgesSiblings(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)
	bob := f.apply(t, trade, f.bob)
	carol := f.apply(t, trade, f.carol)

	got, err := f.svc.ResolveApplication(context.Background(), RespondRequest{
		EntryID: bob.ID, ActorID: f.alice.ID, Action: ActionDecline,
	})

	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, got.Status)
	assert.Nil(t, got.ResponderID)

	queue := f.store.queueFor(trade.ID)
	require.Len(t, queue, 1)
	assert.Equal(t, bob.ID, queue[0].ID)
	assert.Equal(t, models.QueueStatusRejected, queue[0].Status)
	assert.NotNil(t, queue[0].RejectedAt)
	assert.Nil(t, f.store.entry(carol.ID))
}

func TestResolve_PurgedEntryIsNotFound(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)
	bob := f.apply(t, trade, f.bob)
	carol := f.apply(t, trade, f.carol)
	ctx := context.Background()

	_, err := f.svc.ResolveApplication(ctx, RespondRequest{EntryID: bob.ID, ActorID: f.alice.ID, Action: ActionDecline})
	require.NoError(t, err)

	_, err = f.svc.AcceptApplication(ctx, carol.ID, f.alice.ID, "sure")
	requireKind(t, err, KindNotFound)
}

func TestResolve_AlreadyResolvedEntry(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)
	bob := f.apply(t, trade, f.bob)
	ctx := context.Background()

	_, err := f.svc.ResolveApplication(ctx, RespondRequest{EntryID: bob.ID, ActorID: f.alice.ID, Action: ActionDecline})
	require.NoError(t, err)

	_, err = f.svc.AcceptApplication(ctx, bob.ID, f.alice.ID, "changed my mind")
	requireKind(t, err, KindValidation)
	assert.Equal(t, models.TradeStatusPending, f.store.trade(trade.ID).Status)
}

func TestRemoveCandidate(t *testing.T) {
	ctx := context.Background()

	t.Run("initiator removes candidate", func(t *testing.T) {
		f := newFixture(t)
		trade := f.openTrade(t, f.guitar)
		bob := f.apply(t, trade, f.bob)
		carol := f.apply(t, trade, f.carol)

		got, err := f.svc.RemoveCandidate(ctx, RemoveCandidateRequest{EntryID: bob.ID, ActorID: f.alice.ID})

		require.NoError(t, err)
		assert.Equal(t, models.TradeStatusPending, got.Status)
		assert.Equal(t, models.QueueStatusRejected, f.store.entry(bob.ID).Status)
		assert.Nil(t, f.store.entry(carol.ID))
		assert.Contains(t, f.events.types(), models.EventQueueRemoved)
	})

	t.Run("candidate withdraws", func(t *testing.T) {
		f := newFixture(t)
		trade := f.openTrade(t, f.guitar)
		bob := f.apply(t, trade, f.bob)

		_, err := f.svc.RemoveCandidate(ctx, RemoveCandidateRequest{EntryID: bob.ID, ActorID: f.bob.ID})

		require.NoError(t, err)
		assert.Equal(t, models.QueueStatusRejected, f.store.entry(bob.ID).Status)
	})

	t.Run("stranger is refused", func(t *testing.T) {
		f := newFixture(t)
		trade := f.openTrade(t, f.guitar)
		bob := f.apply(t, trade, f.bob)

		_, err := f.svc.RemoveCandidate(ctx, RemoveCandidateRequest{EntryID: bob.ID, ActorID: f.carol.ID})

		requireKind(t, err, KindAuthorization)
		assert.Equal(t, models.QueueStatusApplied, f.store.entry(bob.ID).Status)
	})

	t.Run("accepted responder stays", func(t *testing.T) {
		f := newFixture(t)
		trade := f.acceptedTrade(t)
		queue := f.store.queueFor(trade.ID)
		require.Len(t, queue, 1)

		_, err := f.svc.RemoveCandidate(ctx, RemoveCandidateRequest{EntryID: queue[0].ID, ActorID: f.alice.ID})

		requireKind(t, err, KindValidation)
		assert.Equal(t, models.TradeStatusAccepted, f.store.trade(trade.ID).Status)
	})
}

func TestResolveAndPurge_KeepsOnlyGivenEntry(t *testing.T) {
	f := newFixture(t)
	trade := f.openTrade(t, f.guitar)
	bob := f.apply(t, trade, f.bob)
	f.apply(t, trade, f.carol)
	other := f.openTrade(t, f.guitar)
	f.apply(t, other, f.bob)

	var purged int
	err := f.store.WithTx(context.Background(), func(tx Tx) error {
		var err error
		purged, err = resolveAndPurge(context.Background(), tx, trade, bob)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Len(t, f.store.queueFor(trade.ID), 1)
	assert.Len(t, f.store.queueFor(other.ID), 1)
}

func TestMissingSkills(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	assert.Equal(t, []uuid.UUID{b, c}, missingSkills([]uuid.UUID{a, b, c}, []uuid.UUID{a}))
	assert.Empty(t, missingSkills([]uuid.UUID{a}, []uuid.UUID{b, a}))
	assert.Empty(t, missingSkills(nil, []uuid.UUID{a}))
}
