package reconcile

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"relaydesk/internal/domain"
)

// Store is the dashboard-side message cache: one ordered message list plus
// an unread counter per conversation, reconciled from three independent
// sources that deliver in no guaranteed order: bulk sync responses,
// optimistic local writes, and realtime push events. All mutation goes
// through reducer methods behind one mutex; reads return copies.
type Store struct {
	mu       sync.Mutex
	selected uuid.UUID
	threads  map[uuid.UUID]*thread
}

type thread struct {
	messages []domain.Message
	unread   int
}

func NewStore() *Store {
	return &Store{threads: make(map[uuid.UUID]*thread)}
}

// ApplySync replaces a conversation's list wholesale with a server fetch.
// The server response is ground truth; anything cached locally for the
// conversation, including unresolved optimistic records, is discarded.
func (s *Store) ApplySync(conversationID uuid.UUID, messages []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.thread(conversationID)
	th.messages = make([]domain.Message, len(messages))
	copy(th.messages, messages)
	sortByCreation(th.messages)
}

// ApplyMessage inserts one message from a push event or a confirmed send.
// Duplicates are detected by externalMessageId when present, by id
// otherwise, and replace the existing entry instead of appending. The list
// is re-sorted after insertion since arrival order is not creation order.
func (s *Store) ApplyMessage(event MessageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.thread(event.ConversationID)
	if i := indexOf(th.messages, event.Message); i >= 0 {
		th.messages[i] = event.Message
	} else {
		th.messages = append(th.messages, event.Message)
		if event.ConversationID != s.selected {
			th.unread++
		}
	}
	sortByCreation(th.messages)
}

// ApplyStatus patches the delivery status of the matching message in
// place. No externalMessageId index is kept, so this scans every
// conversation linearly; fine at dashboard scale.
func (s *Store) ApplyStatus(event StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, th := range s.threads {
		for i := range th.messages {
			if matchesStatus(th.messages[i], event) {
				th.messages[i].DeliveryStatus = event.Status
				if event.ExternalMessageID != "" && th.messages[i].ExternalMessageID == nil {
					ext := event.ExternalMessageID
					th.messages[i].ExternalMessageID = &ext
				}
				return
			}
		}
	}
}

// ApplyOptimistic inserts a local placeholder for a send that has not been
// confirmed yet and returns its temporary id. The record shows up
// immediately as PENDING; ResolveOptimistic swaps it for the confirmed row
// or removes it when the send call fails.
func (s *Store) ApplyOptimistic(conversationID uuid.UUID, message domain.Message) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.ConversationID = conversationID
	message.DeliveryStatus = domain.DeliveryStatusPending
	message.ExternalMessageID = nil

	th := s.thread(conversationID)
	th.messages = append(th.messages, message)
	sortByCreation(th.messages)
	return message.ID
}

// ResolveOptimistic finishes an optimistic send. With a confirmed message
// the temporary record is replaced by it; with nil (send request failed)
// the temporary record is removed so a dead placeholder never lingers.
func (s *Store) ResolveOptimistic(conversationID, tempID uuid.UUID, confirmed *domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.thread(conversationID)
	out := th.messages[:0]
	for _, m := range th.messages {
		if m.ID != tempID {
			out = append(out, m)
		}
	}
	th.messages = out

	if confirmed != nil {
		if i := indexOf(th.messages, *confirmed); i >= 0 {
			th.messages[i] = *confirmed
		} else {
			th.messages = append(th.messages, *confirmed)
		}
		sortByCreation(th.messages)
	}
}

// Select marks a conversation as the one on screen and clears its unread
// counter. Messages arriving for the selected conversation do not count
// as unread.
func (s *Store) Select(conversationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = conversationID
	s.thread(conversationID).unread = 0
}

// Messages returns a copy of the conversation's ordered list.
func (s *Store) Messages(conversationID uuid.UUID) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[conversationID]
	if !ok {
		return nil
	}
	out := make([]domain.Message, len(th.messages))
	copy(out, th.messages)
	return out
}

// Unread returns the conversation's unread counter.
func (s *Store) Unread(conversationID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[conversationID]
	if !ok {
		return 0
	}
	return th.unread
}

func (s *Store) thread(conversationID uuid.UUID) *thread {
	th, ok := s.threads[conversationID]
	if !ok {
		th = &thread{}
		s.threads[conversationID] = th
	}
	return th
}

func indexOf(messages []domain.Message, m domain.Message) int {
	for i := range messages {
		if m.ExternalMessageID != nil && messages[i].ExternalMessageID != nil {
			if *messages[i].ExternalMessageID == *m.ExternalMessageID {
				return i
			}
			continue
		}
		if messages[i].ID == m.ID {
			return i
		}
	}
	return -1
}

func matchesStatus(m domain.Message, event StatusEvent) bool {
	if event.ExternalMessageID != "" && m.ExternalMessageID != nil && *m.ExternalMessageID == event.ExternalMessageID {
		return true
	}
	return event.MessageID != uuid.Nil && m.ID == event.MessageID
}

func sortByCreation(messages []domain.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
