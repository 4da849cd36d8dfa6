package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"relaydesk/internal/domain"
	"relaydesk/internal/events"
	"relaydesk/internal/provider"
	relaydesk_errors "relaydesk/pkg/errors"
)

// memStore is a shared in-memory backing for the fake repositories. Tests
// exercise service logic against it without a database.
type memStore struct {
	mu            sync.Mutex
	businesses    map[uuid.UUID]domain.Business
	contacts      map[uuid.UUID]domain.Contact
	conversations map[uuid.UUID]domain.Conversation
	messages      map[uuid.UUID]domain.Message
	participants  map[string]domain.Participant
}

func newMemStore() *memStore {
	return &memStore{
		businesses:    make(map[uuid.UUID]domain.Business),
		contacts:      make(map[uuid.UUID]domain.Contact),
		conversations: make(map[uuid.UUID]domain.Conversation),
		messages:      make(map[uuid.UUID]domain.Message),
		participants:  make(map[string]domain.Participant),
	}
}

func (s *memStore) addBusiness(number string) domain.Business {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := domain.Business{ID: uuid.New(), Name: "Acme", ProviderPhoneNumber: &number, CreatedAt: time.Now().UTC()}
	s.businesses[b.ID] = b
	return b
}

func (s *memStore) addContact(businessID uuid.UUID, phone string, optedIn bool) domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Contact{ID: uuid.New(), BusinessID: businessID, PhoneNumber: phone, OptedIn: optedIn, CreatedAt: time.Now().UTC()}
	s.contacts[c.ID] = c
	return c
}

func (s *memStore) addConversation(businessID, contactID uuid.UUID, channel domain.Channel, status domain.ConversationStatus) domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Conversation{ID: uuid.New(), BusinessID: businessID, ContactID: contactID, Channel: channel, Status: status, CreatedAt: time.Now().UTC()}
	s.conversations[c.ID] = c
	return c
}

func (s *memStore) addMessage(m domain.Message) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.messages[m.ID] = m
	return m
}

func (s *memStore) message(id uuid.UUID) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id]
}

func (s *memStore) conversation(id uuid.UUID) domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations[id]
}

func participantKey(conversationID, userID uuid.UUID) string {
	return conversationID.String() + "/" + userID.String()
}

type fakeBusinessRepo struct{ store *memStore }

func (r *fakeBusinessRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Business, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.businesses[id]
	if !ok {
		return domain.Business{}, relaydesk_errors.ErrNotFound
	}
	return b, nil
}

func (r *fakeBusinessRepo) GetByProviderNumber(_ context.Context, phone string) (domain.Business, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.businesses {
		if b.ProviderPhoneNumber != nil && *b.ProviderPhoneNumber == phone {
			return b, nil
		}
	}
	return domain.Business{}, relaydesk_errors.ErrNotFound
}

type fakeContactRepo struct{ store *memStore }

func (r *fakeContactRepo) Create(_ context.Context, c *domain.Contact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.store.contacts[c.ID] = *c
	return nil
}

func (r *fakeContactRepo) FindOrCreate(_ context.Context, businessID uuid.UUID, phone string) (domain.Contact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.contacts {
		if c.BusinessID == businessID && c.PhoneNumber == phone {
			return c, nil
		}
	}
	c := domain.Contact{ID: uuid.New(), BusinessID: businessID, PhoneNumber: phone, OptedIn: true, CreatedAt: time.Now().UTC()}
	r.store.contacts[c.ID] = c
	return c, nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Contact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.contacts[id]
	if !ok {
		return domain.Contact{}, relaydesk_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeContactRepo) SetOptedIn(_ context.Context, id uuid.UUID, optedIn bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.contacts[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	c.OptedIn = optedIn
	r.store.contacts[id] = c
	return nil
}

type fakeConversationRepo struct{ store *memStore }

func (r *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Conversation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.conversations[id]
	if !ok {
		return domain.Conversation{}, relaydesk_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeConversationRepo) FindOpenOrCreate(_ context.Context, businessID, contactID uuid.UUID, channel domain.Channel) (domain.Conversation, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.conversations {
		if c.BusinessID == businessID && c.ContactID == contactID && c.Status == domain.ConversationStatusOpen {
			return c, false, nil
		}
	}
	c := domain.Conversation{ID: uuid.New(), BusinessID: businessID, ContactID: contactID, Channel: channel, Status: domain.ConversationStatusOpen, CreatedAt: time.Now().UTC()}
	r.store.conversations[c.ID] = c
	return c, true, nil
}

func (r *fakeConversationRepo) TouchLastMessage(_ context.Context, id uuid.UUID, at time.Time, preview string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.conversations[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	c.LastMessageAt = &at
	c.LastMessagePreview = &preview
	r.store.conversations[id] = c
	return nil
}

func (r *fakeConversationRepo) Assign(_ context.Context, id uuid.UUID, assigneeID *uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.conversations[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	c.AssigneeID = assigneeID
	r.store.conversations[id] = c
	return nil
}

func (r *fakeConversationRepo) Archive(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.conversations[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	c.Status = domain.ConversationStatusArchived
	r.store.conversations[id] = c
	return nil
}

func (r *fakeConversationRepo) List(_ context.Context, businessID uuid.UUID, search string, page, limit int) ([]domain.Conversation, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.store.conversations {
		if c.BusinessID != businessID {
			continue
		}
		if search != "" {
			contact := r.store.contacts[c.ContactID]
			if !strings.Contains(contact.PhoneNumber, search) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type fakeMessageRepo struct{ store *memStore }

func (r *fakeMessageRepo) Create(_ context.Context, m *domain.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if m.ExternalMessageID != nil {
		for _, existing := range r.store.messages {
			if existing.BusinessID == m.BusinessID &&
				existing.ExternalMessageID != nil &&
				*existing.ExternalMessageID == *m.ExternalMessageID {
				return relaydesk_errors.ErrAlreadyExists
			}
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.store.messages[m.ID] = *m
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.messages[id]
	if !ok {
		return domain.Message{}, relaydesk_errors.ErrNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) GetByExternalID(_ context.Context, businessID uuid.UUID, externalID string) (domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.messages {
		if m.BusinessID == businessID && m.ExternalMessageID != nil && *m.ExternalMessageID == externalID {
			return m, nil
		}
	}
	return domain.Message{}, relaydesk_errors.ErrNotFound
}

func (r *fakeMessageRepo) MarkDispatched(_ context.Context, id uuid.UUID, externalID string, raw map[string]interface{}) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.messages[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	m.ExternalMessageID = &externalID
	m.DeliveryStatus = domain.DeliveryStatusSent
	m.RawPayload = raw
	r.store.messages[id] = m
	return nil
}

func (r *fakeMessageRepo) MarkFailed(_ context.Context, id uuid.UUID, raw map[string]interface{}) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.messages[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	m.DeliveryStatus = domain.DeliveryStatusFailed
	m.RawPayload = raw
	r.store.messages[id] = m
	return nil
}

func (r *fakeMessageRepo) UpdateDeliveryStatus(_ context.Context, id uuid.UUID, status domain.DeliveryStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.messages[id]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	m.DeliveryStatus = status
	r.store.messages[id] = m
	return nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Message
	for _, m := range r.store.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	// newest first, like the real repository
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) ListStuckPending(_ context.Context, olderThan time.Time, limit int) ([]domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Message
	for _, m := range r.store.messages {
		if m.Direction == domain.DirectionOutbound &&
			m.DeliveryStatus == domain.DeliveryStatusPending &&
			m.CreatedAt.Before(olderThan) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeParticipantRepo struct{ store *memStore }

func (r *fakeParticipantRepo) Touch(_ context.Context, conversationID, userID uuid.UUID) (domain.Participant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := participantKey(conversationID, userID)
	p, ok := r.store.participants[key]
	if !ok {
		p = domain.Participant{ConversationID: conversationID, UserID: userID, JoinedAt: time.Now().UTC()}
		r.store.participants[key] = p
	}
	return p, nil
}

func (r *fakeParticipantRepo) MarkRead(_ context.Context, conversationID, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := participantKey(conversationID, userID)
	p, ok := r.store.participants[key]
	if !ok {
		return relaydesk_errors.ErrNotFound
	}
	p.UnreadCount = 0
	p.LastReadAt = relaydesk_errors.NowPtr()
	r.store.participants[key] = p
	return nil
}

func (r *fakeParticipantRepo) IncrementUnread(_ context.Context, conversationID uuid.UUID, except *uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for key, p := range r.store.participants {
		if p.ConversationID != conversationID {
			continue
		}
		if except != nil && p.UserID == *except {
			continue
		}
		p.UnreadCount++
		r.store.participants[key] = p
	}
	return nil
}

func (r *fakeParticipantRepo) Get(_ context.Context, conversationID, userID uuid.UUID) (domain.Participant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.participants[participantKey(conversationID, userID)]
	if !ok {
		return domain.Participant{}, relaydesk_errors.ErrNotFound
	}
	return p, nil
}

// fakeBroadcaster records published events in order.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBroadcaster) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *fakeBroadcaster) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *fakeBroadcaster) names() []string {
	var out []string
	for _, e := range b.published() {
		out = append(out, e.EventName())
	}
	return out
}

// fakeSender scripts the provider response.
type fakeSender struct {
	mu       sync.Mutex
	result   provider.SendResult
	err      error
	requests []provider.SendRequest
}

func (s *fakeSender) Send(_ context.Context, req provider.SendRequest) (provider.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result, s.err
}

func (s *fakeSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type fakeMedia struct {
	url string
	err error
}

func (m *fakeMedia) Mirror(_ context.Context, _ uuid.UUID, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

var errMediaDown = errors.New("media store unavailable")
