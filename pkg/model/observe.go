package model

import (
	"slices"
	"sync"

	"github.com/mesh-intelligence/drills/pkg/types"
)

// Op names the kind of mutation a Change reports.
type Op string

// Mutation operations published to observers.
const (
	OpSet           Op = "set"
	OpSaved         Op = "saved"
	OpSaveFailed    Op = "save_failed"
	OpMerged        Op = "merged"
	OpPlayerAdded   Op = "player_added"
	OpPlayerRemoved Op = "player_removed"
)

// Change describes one mutation of an entity.
type Change struct {
	Kind  string   // Entity kind of the mutated entity.
	ID    types.ID // Identity of the mutated entity.
	Field string   // Field name, or the child id for player ops.
	Op    Op
}

// Observer receives changes. Observers run synchronously on the mutating
// goroutine, after the entity's locks are released, so they may read the
// entity back.
type Observer func(Change)

// observers is a subscription list keyed by a monotonically increasing handle.
type observers struct {
	mu   sync.Mutex
	next int
	subs map[int]Observer
}

func (o *observers) subscribe(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[int]Observer)
	}
	h := o.next
	o.next++
	o.subs[h] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, h)
	}
}

func (o *observers) publish(changes ...Change) {
	if len(changes) == 0 {
		return
	}
	o.mu.Lock()
	handles := make([]int, 0, len(o.subs))
	for h := range o.subs {
		handles = append(handles, h)
	}
	fns := make([]Observer, 0, len(handles))
	slices.Sort(handles)
	for _, h := range handles {
		fns = append(fns, o.subs[h])
	}
	o.mu.Unlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}
