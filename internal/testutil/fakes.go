package testutil

import (
	"context"
	"sync"

	"github.com/oggyb/matchbot/internal/events"
)

// Delivery is one notification captured by RecordingChannel.
type Delivery struct {
	Recipient string
	Text      string
}

// RecordingChannel is an in-memory notify.Channel. Recipients listed in Fail
// get the configured error instead of a delivery.
type RecordingChannel struct {
	mu         sync.Mutex
	deliveries []Delivery
	Fail       map[string]error
}

func (c *RecordingChannel) Deliver(ctx context.Context, recipient string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Fail[recipient]; err != nil {
		return err
	}
	c.deliveries = append(c.deliveries, Delivery{Recipient: recipient, Text: text})
	return nil
}

// Deliveries returns a copy of everything delivered so far.
func (c *RecordingChannel) Deliveries() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Delivery(nil), c.deliveries...)
}

// To returns the texts delivered to one recipient.
func (c *RecordingChannel) To(recipient string) []string {
	var out []string
	for _, d := range c.Deliveries() {
		if d.Recipient == recipient {
			out = append(out, d.Text)
		}
	}
	return out
}

// RecordingPublisher is an in-memory events.Publisher.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// OfType returns the published events with the given type.
func (p *RecordingPublisher) OfType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
