package client

import (
	"context"
	"sync"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/logger"
)

// Store event kinds.
const (
	EventStageAdvanced = "stage_advanced"
	EventRevealed      = "revealed"
)

// StoreEvent is delivered to subscribers when a relationship transitions.
type StoreEvent struct {
	Kind         string
	Relationship entity.RelationshipView
}

// RelationshipStore is the single source of relationship truth shared by all
// open surfaces (matches list, open chats). Components that learn new state
// via polling feed it through Apply; subscribers react instead of keeping
// private copies, so no two screens can show different stages.
//
// Apply enforces the client-side invariants: stage never regresses, and a
// revealed flag below the reveal stage is rejected as inconsistent.
type RelationshipStore struct {
	api *Client
	log *logger.Logger

	mu       sync.Mutex
	rels     map[string]entity.RelationshipView
	profiles map[string]entity.PublicProfile
	subs     map[int]func(StoreEvent)
	nextSub  int
}

func NewRelationshipStore(api *Client, log *logger.Logger) *RelationshipStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &RelationshipStore{
		api:      api,
		log:      log,
		rels:     make(map[string]entity.RelationshipView),
		profiles: make(map[string]entity.PublicProfile),
		subs:     make(map[int]func(StoreEvent)),
	}
}

// Subscribe registers a transition callback; the returned func cancels it.
// A panicking subscriber is dropped and logged rather than taking down the
// caller.
func (s *RelationshipStore) Subscribe(fn func(StoreEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *RelationshipStore) notify(events []StoreEvent) {
	s.mu.Lock()
	subs := make(map[int]func(StoreEvent), len(s.subs))
	for id, fn := range s.subs {
		subs[id] = fn
	}
	s.mu.Unlock()
	for id, fn := range subs {
		for _, ev := range events {
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("subscriber panicked, dropping it", "id", id, "panic", r)
						s.mu.Lock()
						delete(s.subs, id)
						s.mu.Unlock()
					}
				}()
				fn(ev)
			}()
		}
	}
}

// Apply merges a polled snapshot into the store and returns the merged view.
// Transitions (stage increase, reveal edge) fire subscriber events exactly
// once.
func (s *RelationshipStore) Apply(snap entity.RelationshipView) entity.RelationshipView {
	s.mu.Lock()
	prev, known := s.rels[snap.ID]

	// A revealed flag below the reveal stage is inconsistent; treat the
	// snapshot as not-yet-revealed rather than crashing or trusting it.
	if snap.Revealed && snap.Stage < entity.StageReveal {
		snap.Revealed = false
	}
	if known {
		// Stage is monotonic: a stale snapshot never regresses it.
		if snap.Stage < prev.Stage {
			snap.Stage = prev.Stage
		}
		if prev.Revealed {
			snap.Revealed = true
			if snap.CounterpartUserID == "" {
				snap.CounterpartUserID = prev.CounterpartUserID
			}
		}
	}
	s.rels[snap.ID] = snap
	s.mu.Unlock()

	var events []StoreEvent
	if known && snap.Stage > prev.Stage {
		events = append(events, StoreEvent{Kind: EventStageAdvanced, Relationship: snap})
	}
	if snap.Revealed && (!known || !prev.Revealed) {
		events = append(events, StoreEvent{Kind: EventRevealed, Relationship: snap})
	}
	if len(events) > 0 {
		s.notify(events)
	}
	return snap
}

// Get returns the stored view for a relationship id.
func (s *RelationshipStore) Get(id string) (entity.RelationshipView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rels[id]
	return v, ok
}

// All returns the stored views.
func (s *RelationshipStore) All() []entity.RelationshipView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.RelationshipView, 0, len(s.rels))
	for _, v := range s.rels {
		out = append(out, v)
	}
	return out
}

// Refresh polls the relationship list and applies every snapshot.
func (s *RelationshipStore) Refresh(ctx context.Context) error {
	views, err := s.api.Relationships(ctx)
	if err != nil {
		return err
	}
	for _, v := range views {
		s.Apply(v)
	}
	return nil
}

// RequestReveal forwards this side's consent. On a failure nothing local
// changes; truth is re-derived from the next successful poll.
func (s *RelationshipStore) RequestReveal(ctx context.Context, relID string) (string, error) {
	status, err := s.api.RequestReveal(ctx, relID)
	if err != nil {
		return "", err
	}
	if status == entity.RevealRevealed {
		if err := s.Refresh(ctx); err != nil {
			s.log.Warn("refresh after reveal failed", "relationship", relID, "err", err)
		}
	}
	return status, nil
}

// ResolveCounterpart fetches and caches the counterpart's public profile for
// a revealed relationship. No-op until the relationship is revealed.
func (s *RelationshipStore) ResolveCounterpart(ctx context.Context, relID string) error {
	s.mu.Lock()
	v, ok := s.rels[relID]
	_, resolved := s.profiles[relID]
	s.mu.Unlock()
	if !ok || !v.Revealed || v.CounterpartUserID == "" || resolved {
		return nil
	}
	profile, err := s.api.PublicProfile(ctx, v.CounterpartUserID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.profiles[relID] = *profile
	s.mu.Unlock()
	return nil
}

// RevealedView returns the relationship together with the resolved
// counterpart profile. ok is false until both the reveal has happened and
// the profile is resolved: rendering a revealed surface must wait for both,
// never flash partial identity data.
func (s *RelationshipStore) RevealedView(relID string) (entity.RelationshipView, entity.PublicProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rels[relID]
	if !ok || !v.Revealed {
		return entity.RelationshipView{}, entity.PublicProfile{}, false
	}
	p, ok := s.profiles[relID]
	if !ok {
		return entity.RelationshipView{}, entity.PublicProfile{}, false
	}
	return v, p, true
}

// CounterpartName returns the name to render for the counterpart: the alias
// before reveal, the real name only once the profile is resolved.
func (s *RelationshipStore) CounterpartName(relID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rels[relID]
	if !ok {
		return ""
	}
	if v.Revealed {
		if p, ok := s.profiles[relID]; ok {
			return p.DisplayName
		}
	}
	return v.TheirAlias
}
