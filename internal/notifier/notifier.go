package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic identifies one document's update stream. Ordering holds within a
// topic only; subscribers must not assume causal ordering between a
// user's slot update and the matching resource's counter update.
type Topic string

func UserTopic(id uuid.UUID) Topic {
	return Topic("user/" + id.String())
}

func ResourceTopic(id uuid.UUID) Topic {
	return Topic("resource/" + id.String())
}

const (
	KindReservationCreated   = "reservation_created"
	KindReservationCancelled = "reservation_cancelled"
	KindReservationState     = "reservation_state_changed"
	KindInventoryChanged     = "inventory_changed"
)

// Event carries the full state a subscriber needs to re-render; delivery
// is at-least-once and slow subscribers may observe only the latest of a
// burst, so payloads are snapshots, never deltas.
type Event struct {
	Topic   Topic     `json:"topic"`
	Kind    string    `json:"kind"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

type ReservationCreated struct {
	UserID          uuid.UUID `json:"user_id"`
	ResourceID      uuid.UUID `json:"resource_id"`
	ReservationID   uuid.UUID `json:"reservation_id"`
	SlotIndex       int32     `json:"slot_index"`
	OccupiedSlots   int32     `json:"occupied_slots"`
	AvailableCopies int32     `json:"available_copies"`
}

type ReservationCancelled struct {
	UserID          uuid.UUID `json:"user_id"`
	ResourceID      uuid.UUID `json:"resource_id"`
	ReservationID   uuid.UUID `json:"reservation_id"`
	AvailableCopies int32     `json:"available_copies"`
}

type ReservationStateChanged struct {
	UserID        uuid.UUID `json:"user_id"`
	ResourceID    uuid.UUID `json:"resource_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	State         string    `json:"state"`
}

type InventoryChanged struct {
	ResourceID      uuid.UUID `json:"resource_id"`
	AvailableCopies int32     `json:"available_copies"`
}

const subscriptionBuffer = 16

// Subscription is one live subscriber handle. Each widget (badge
// counter, notification panel) holds its own and is responsible for its
// own re-render.
type Subscription struct {
	C chan Event

	notifier *ChangeNotifier
	topics   []Topic
	once     sync.Once
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.notifier.unsubscribe(s)
		close(s.C)
	})
}

// ChangeNotifier is a single-writer-many-reader fan-out of document
// change events. Publish never blocks: a full subscriber buffer drops
// the oldest pending event, which is safe because payloads are full
// snapshots and subscribers tolerate duplicates.
type ChangeNotifier struct {
	mu   sync.Mutex
	subs map[Topic]map[*Subscription]struct{}
}

func New() *ChangeNotifier {
	return &ChangeNotifier{
		subs: map[Topic]map[*Subscription]struct{}{},
	}
}

func (n *ChangeNotifier) Subscribe(topics ...Topic) *Subscription {
	sub := &Subscription{
		C:        make(chan Event, subscriptionBuffer),
		notifier: n,
		topics:   topics,
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, topic := range topics {
		listeners := n.subs[topic]
		if listeners == nil {
			listeners = map[*Subscription]struct{}{}
			n.subs[topic] = listeners
		}
		listeners[sub] = struct{}{}
	}
	return sub
}

func (n *ChangeNotifier) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	// Sends happen under the lock so a concurrent Close cannot close a
	// channel mid-send. Sends never block: buffers are evicted instead.
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs[ev.Topic] {
		for {
			select {
			case sub.C <- ev:
			default:
				// Buffer full: evict the oldest pending event and retry.
				select {
				case <-sub.C:
				default:
				}
				continue
			}
			break
		}
	}
}

func (n *ChangeNotifier) unsubscribe(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, topic := range sub.topics {
		listeners := n.subs[topic]
		if listeners == nil {
			continue
		}
		delete(listeners, sub)
		if len(listeners) == 0 {
			delete(n.subs, topic)
		}
	}
}
