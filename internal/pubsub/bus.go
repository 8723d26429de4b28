package pubsub

import (
	"sync"

	"github.com/pdash/dashboard-gateway/internal/gateway"
)

// TopicWeather carries weather updates from the subscription poller.
const TopicWeather = "weather"

// Bus is a small in-process fanout. Every subscriber of a topic receives
// every publication; relevance filtering happens on the subscriber side.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan gateway.WeatherUpdate
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan gateway.WeatherUpdate)}
}

// Subscribe registers a channel on a topic. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(topic string) (<-chan gateway.WeatherUpdate, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan gateway.WeatherUpdate)
	}
	id := b.nextID
	b.nextID++

	ch := make(chan gateway.WeatherUpdate, 8)
	b.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[topic][id]; ok {
				delete(b.subs[topic], id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers an update to every current subscriber of the topic.
// Sends never block: a subscriber with a full buffer misses the update and
// catches up on the next poll tick.
func (b *Bus) Publish(topic string, update gateway.WeatherUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[topic] {
		select {
		case ch <- update:
		default:
		}
	}
}

// SubscriberCount reports the current number of subscribers on a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
