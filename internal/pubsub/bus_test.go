package pubsub

import (
	"testing"
	"time"

	"github.com/pdash/dashboard-gateway/internal/gateway"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	first, cancelFirst := bus.Subscribe(TopicWeather)
	second, cancelSecond := bus.Subscribe(TopicWeather)
	defer cancelFirst()
	defer cancelSecond()

	update := gateway.WeatherUpdate{Lat: 40.71, Lon: -74.01, At: time.Now()}
	bus.Publish(TopicWeather, update)

	for _, ch := range []<-chan gateway.WeatherUpdate{first, second} {
		select {
		case got := <-ch:
			if got.Lat != update.Lat || got.Lon != update.Lon {
				t.Fatalf("unexpected update: %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
		}
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(TopicWeather)
	if bus.SubscriberCount(TopicWeather) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", bus.SubscriberCount(TopicWeather))
	}

	cancel()
	cancel() // second call must be a no-op

	if bus.SubscriberCount(TopicWeather) != 0 {
		t.Fatalf("expected 0 subscribers, got %d", bus.SubscriberCount(TopicWeather))
	}
	if _, open := <-ch; open {
		t.Fatal("expected the channel to be closed")
	}

	// Publishing with no subscribers must not panic.
	bus.Publish(TopicWeather, gateway.WeatherUpdate{})
}

// TestPublishNeverBlocks fills a subscriber's buffer and verifies further
// publications drop rather than stall the publisher.
func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus()

	_, cancel := bus.Subscribe(TopicWeather)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(TopicWeather, gateway.WeatherUpdate{Lat: float64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
