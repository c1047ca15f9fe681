package services

import (
	"sync"
	"time"
)

// Event types published by the tournament service for the notification and
// real-time layers. The service only announces; delivery is the subscriber's
// problem.
const (
	EventRosterChanged = "roster_changed"
	EventStatusChanged = "status_changed"
	EventDeleted       = "deleted"
)

type Event struct {
	TournamentID string    `json:"tournament_id"`
	Type         string    `json:"type"`
	Status       string    `json:"status,omitempty"`
	RosterSize   int       `json:"roster_size"`
	At           time.Time `json:"at"`
}

// Broadcaster fans tournament events out to in-process subscribers. Slow
// subscribers are skipped rather than blocked on, so a stalled SSE client
// can never back-pressure a join.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{} // tournament id -> subscriber set
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for events on one tournament. The returned cancel func
// must be called when the subscriber goes away.
func (b *Broadcaster) Subscribe(tournamentID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[tournamentID] == nil {
		b.subs[tournamentID] = make(map[chan Event]struct{})
	}
	b.subs[tournamentID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[tournamentID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, tournamentID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broadcaster) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ev.TournamentID] {
		select {
		case ch <- ev:
		default: // subscriber buffer full, drop
		}
	}
}
