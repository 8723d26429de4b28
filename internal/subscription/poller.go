package subscription

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/pubsub"
)

// WeatherSource is the slice of the gateway service the poller needs.
type WeatherSource interface {
	RefreshCurrentWeather(ctx context.Context, lat, lon float64) (*gateway.CurrentWeather, error)
}

// Poller keeps one scheduled job per subscribed location (coordinates
// rounded to two decimal places) and republishes fresh current conditions on
// a fixed interval. Re-subscribing to a location replaces its prior job, so
// duplicate timers never accumulate.
type Poller struct {
	sched    *gocron.Scheduler
	source   WeatherSource
	bus      *pubsub.Bus
	interval time.Duration

	mu     sync.Mutex
	active map[string]bool
}

func NewPoller(source WeatherSource, bus *pubsub.Bus, interval time.Duration) *Poller {
	return &Poller{
		sched:    gocron.NewScheduler(time.UTC),
		source:   source,
		bus:      bus,
		interval: interval,
		active:   make(map[string]bool),
	}
}

// Start launches the underlying scheduler.
func (p *Poller) Start() {
	p.sched.StartAsync()
}

// Subscribe registers a location for polling. The first publication happens
// immediately; subsequent ones follow the poll interval. A prior job for the
// same rounded coordinate is removed before the new one is scheduled.
func (p *Poller) Subscribe(lat, lon float64) error {
	key := locationKey(lat, lon)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active[key] {
		if err := p.sched.RemoveByTag(key); err != nil {
			log.Printf("poller: removing prior job for %s: %v", key, err)
		}
	}

	go p.publish(lat, lon)

	// Duration jobs run immediately by default on a started scheduler;
	// WaitForSchedule keeps the explicit publish above as the only first one.
	if _, err := p.sched.Every(p.interval).WaitForSchedule().Tag(key).Do(func() {
		p.publish(lat, lon)
	}); err != nil {
		return fmt.Errorf("scheduling weather poll for %s: %w", key, err)
	}
	p.active[key] = true
	return nil
}

// JobCount reports the number of active polling jobs.
func (p *Poller) JobCount() int {
	return len(p.sched.Jobs())
}

// Stop clears all jobs and stops the scheduler.
func (p *Poller) Stop() {
	p.sched.Clear()
	p.sched.Stop()
}

func (p *Poller) publish(lat, lon float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	current, err := p.source.RefreshCurrentWeather(ctx, lat, lon)
	if err != nil {
		log.Printf("poller: weather refresh failed for %s: %v", locationKey(lat, lon), err)
		return
	}

	p.bus.Publish(pubsub.TopicWeather, gateway.WeatherUpdate{
		Lat:     lat,
		Lon:     lon,
		Current: current,
		At:      time.Now().UTC(),
	})
}

func locationKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}
