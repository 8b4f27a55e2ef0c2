package connectivity

import (
	"context"
	"sync"
)

// SimRadio associates after a fixed number of Associated polls following a
// Connect. Never makes it fail forever.
type SimRadio struct {
	mu         sync.Mutex
	AfterPolls int
	Never      bool
	connected  bool
	connecting bool
	polls      int
	connects   int
}

func (r *SimRadio) Connect(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connects++
	if !r.connected {
		r.connecting, r.polls = true, 0
	}
	return nil
}

func (r *SimRadio) Associated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connected {
		return true
	}
	if !r.connecting || r.Never {
		return false
	}
	if r.polls >= r.AfterPolls {
		r.connected, r.connecting = true, false
		return true
	}
	r.polls++
	return false
}

// Drop simulates a lost link.
func (r *SimRadio) Drop() {
	r.mu.Lock()
	r.connected, r.connecting = false, false
	r.mu.Unlock()
}

// Connects counts Connect calls.
func (r *SimRadio) Connects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}
