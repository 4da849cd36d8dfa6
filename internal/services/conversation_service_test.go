package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
	relaydesk_errors "relaydesk/pkg/errors"
	"relaydesk/pkg/logger"
)

func newConversationFixture(store *memStore) (*ConversationService, *fakeBroadcaster) {
	broadcaster := &fakeBroadcaster{}
	svc := NewConversationService(
		&fakeConversationRepo{store},
		&fakeContactRepo{store},
		&fakeMessageRepo{store},
		&fakeParticipantRepo{store},
		broadcaster,
		logger.NewNop(),
	)
	return svc, broadcaster
}

func TestStartOpensNewConversation(t *testing.T) {
	store := newMemStore()
	business := store.addBusiness("+15550001111")
	contact := store.addContact(business.ID, "+15557772222", true)
	svc, broadcaster := newConversationFixture(store)
	ctx, _ := agentContext(business.ID)

	conversation, err := svc.Start(ctx, contact.ID, domain.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationStatusOpen, conversation.Status)
	assert.Equal(t, []string{events.EventConversationOpened}, broadcaster.names())
}

func TestStartReturnsExistingOpenConversation(t *testing.T) {
	store := newMemStore()
	business := store.addBusiness("+15550001111")
	contact := store.addContact(business.ID, "+15557772222", true)
	existing := store.addConversation(business.ID, contact.ID, domain.ChannelWhatsApp, domain.ConversationStatusOpen)
	svc, broadcaster := newConversationFixture(store)
	ctx, _ := agentContext(business.ID)

	conversation, err := svc.Start(ctx, contact.ID, domain.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conversation.ID)
	assert.Empty(t, broadcaster.published())
}

func TestStartForeignContactForbidden(t *testing.T) {
	store := newMemStore()
	business := store.addBusiness("+15550001111")
	other := store.addBusiness("+15550002222")
	contact := store.addContact(business.ID, "+15557772222", true)
	svc, _ := newConversationFixture(store)
	ctx, _ := agentContext(other.ID)

	_, err := svc.Start(ctx, contact.ID, domain.ChannelWhatsApp)
	assert.ErrorIs(t, err, relaydesk_errors.ErrForbidden)
}

func TestMessagesReturnedOldestFirst(t *testing.T) {
	store := newMemStore()
	business := store.addBusiness("+15550001111")
	contact := store.addContact(business.ID, "+15557772222", true)
	conversation := store.addConversation(business.ID, contact.ID, domain.ChannelWhatsApp, domain.ConversationStatusOpen)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		m := domain.NewOutbound(business.ID, conversation.ID, uuid.New(), domain.MessageTypeText, strPtr("m"))
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		store.addMessage(m)
	}

	svc, _ := newConversationFixture(store)
	ctx, _ := agentContext(business.ID)

	messages, err := svc.Messages(ctx, conversation.ID, nil, 50)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.True(t, messages[0].CreatedAt.Before(messages[1].CreatedAt))
	assert.True(t, messages[1].CreatedAt.Before(messages[2].CreatedAt))
}

func TestMarkReadResetsUnread(t *testing.T) {
	store := newMemStore()
	business := store.addBusiness("+15550001111")
	contact := store.addContact(business.ID, "+15557772222", true)
	conversation := store.addConversation(business.ID, contact.ID, domain.ChannelWhatsApp, domain.ConversationStatusOpen)

	svc, _ := newConversationFixture(store)
	ctx, userID := agentContext(business.ID)

	participants := &fakeParticipantRepo{store}
	_, err := participants.Touch(ctx, conversation.ID, userID)
	require.NoError(t, err)
	require.NoError(t, participants.IncrementUnread(ctx, conversation.ID, nil))

	require.NoError(t, svc.MarkRead(ctx, conversation.ID))

	p, err := participants.Get(ctx, conversation.ID, userID)
	require.NoError(t, err)
	assert.Zero(t, p.UnreadCount)
	assert.NotNil(t, p.LastReadAt)
}

func TestArchiveCrossTenantForbidden(t *testing.T) {
	store := newMemStore()
	business := store.addBusiness("+15550001111")
	other := store.addBusiness("+15550002222")
	contact := store.addContact(business.ID, "+15557772222", true)
	conversation := store.addConversation(business.ID, contact.ID, domain.ChannelWhatsApp, domain.ConversationStatusOpen)

	svc, _ := newConversationFixture(store)
	ctx, _ := agentContext(other.ID)

	err := svc.Archive(ctx, conversation.ID)
	assert.ErrorIs(t, err, relaydesk_errors.ErrForbidden)
	assert.Equal(t, domain.ConversationStatusOpen, store.conversation(conversation.ID).Status)
}

func TestListRequiresAuth(t *testing.T) {
	store := newMemStore()
	svc, _ := newConversationFixture(store)

	_, _, err := svc.List(context.Background(), "", 1, 25)
	assert.ErrorIs(t, err, relaydesk_errors.ErrUnauthorized)
}
