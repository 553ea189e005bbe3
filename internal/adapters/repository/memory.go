package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matchday/engine/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithClock injects a clock for tests.
func WithClock(now nowFunc) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// ratingKey identifies one (rater, rated) row.
type ratingKey struct{ rater, rated string }

// offerKey identifies one (game, player) offer.
type offerKey struct{ game, player string }

// MemoryStore implements Store in process. All engine state lives in one
// store, so no distributed coordination is needed; a single RWMutex guards
// the maps and the player CAS.
type MemoryStore struct {
	mu sync.RWMutex

	players       map[string]model.Player
	ratings       map[ratingKey]model.Rating
	derived       map[string]model.DerivedAttributes
	games         map[string]model.Game
	registrations map[string]map[string]model.GameRegistration // gameID -> playerID
	usages        map[string]model.ShieldTokenUsage            // usage id
	ledger        []model.TokenLedgerEntry
	offers        map[offerKey]model.SlotOffer

	now nowFunc
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		players:       make(map[string]model.Player),
		ratings:       make(map[ratingKey]model.Rating),
		derived:       make(map[string]model.DerivedAttributes),
		games:         make(map[string]model.Game),
		registrations: make(map[string]map[string]model.GameRegistration),
		usages:        make(map[string]model.ShieldTokenUsage),
		offers:        make(map[offerKey]model.SlotOffer),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) PutPlayer(_ context.Context, p model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
	return nil
}

func (s *MemoryStore) Player(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) Players(_ context.Context) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CompareAndSwapPlayer applies the optimistic write described on Store.
func (s *MemoryStore) CompareAndSwapPlayer(_ context.Context, p model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.players[p.ID]
	if !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	if cur.Version != p.Version {
		return fmt.Errorf("player %s at v%d, write based on v%d: %w", p.ID, cur.Version, p.Version, ErrVersionConflict)
	}
	p.Version++
	s.players[p.ID] = p
	return nil
}

func (s *MemoryStore) PutRating(_ context.Context, r model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[ratingKey{r.RaterID, r.RatedID}] = r
	return nil
}

func (s *MemoryStore) DeleteRating(_ context.Context, raterID, ratedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingKey{raterID, ratedID}
	if _, ok := s.ratings[key]; !ok {
		return fmt.Errorf("rating %s->%s: %w", raterID, ratedID, ErrNotFound)
	}
	delete(s.ratings, key)
	return nil
}

func (s *MemoryStore) RatingsFor(_ context.Context, ratedID string) ([]model.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Rating
	for key, r := range s.ratings {
		if key.rated == ratedID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RaterID < out[j].RaterID })
	return out, nil
}

func (s *MemoryStore) PutDerived(_ context.Context, d model.DerivedAttributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derived[d.PlayerID] = d
	return nil
}

func (s *MemoryStore) DerivedFor(_ context.Context, playerID string) (model.DerivedAttributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.derived[playerID]
	if !ok {
		return model.DerivedAttributes{}, fmt.Errorf("derived attributes for %s: %w", playerID, ErrNotFound)
	}
	return d, nil
}

func (s *MemoryStore) PutGame(_ context.Context, g model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	return nil
}

func (s *MemoryStore) Game(_ context.Context, id string) (model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return model.Game{}, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return g, nil
}

func (s *MemoryStore) CompletedGames(_ context.Context) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Game
	for _, g := range s.games {
		if g.Completed && !g.Canceled {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.After(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) PutRegistration(_ context.Context, r model.GameRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPlayer, ok := s.registrations[r.GameID]
	if !ok {
		byPlayer = make(map[string]model.GameRegistration)
		s.registrations[r.GameID] = byPlayer
	}
	byPlayer[r.PlayerID] = r
	return nil
}

func (s *MemoryStore) Registration(_ context.Context, gameID, playerID string) (model.GameRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[gameID][playerID]
	if !ok {
		return model.GameRegistration{}, fmt.Errorf("registration %s/%s: %w", gameID, playerID, ErrNotFound)
	}
	return r, nil
}

func (s *MemoryStore) RegistrationsForGame(_ context.Context, gameID string) ([]model.GameRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byPlayer := s.registrations[gameID]
	out := make([]model.GameRegistration, 0, len(byPlayer))
	for _, r := range byPlayer {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (s *MemoryStore) RegistrationsForPlayer(_ context.Context, playerID string) (map[string]model.GameRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.GameRegistration)
	for gameID, byPlayer := range s.registrations {
		if r, ok := byPlayer[playerID]; ok {
			out[gameID] = r
		}
	}
	return out, nil
}

func (s *MemoryStore) PutUsage(_ context.Context, u model.ShieldTokenUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages[u.ID] = u
	return nil
}

func (s *MemoryStore) ActiveUsage(_ context.Context, playerID string) (model.ShieldTokenUsage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.usages {
		if u.PlayerID == playerID && u.Active {
			return u, true, nil
		}
	}
	return model.ShieldTokenUsage{}, false, nil
}

func (s *MemoryStore) UsagesForGame(_ context.Context, gameID string) ([]model.ShieldTokenUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ShieldTokenUsage
	for _, u := range s.usages {
		if u.GameID == gameID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AppendLedger(_ context.Context, e model.TokenLedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, e)
	return nil
}

func (s *MemoryStore) LedgerFor(_ context.Context, playerID string) ([]model.TokenLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TokenLedgerEntry
	for _, e := range s.ledger {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateOffer is guarded by the (game, player) key so a pending offer is
// never duplicated.
func (s *MemoryStore) CreateOffer(_ context.Context, o model.SlotOffer) (model.SlotOffer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := offerKey{o.GameID, o.PlayerID}
	if existing, ok := s.offers[key]; ok && existing.Status == model.OfferPending {
		return existing, false, nil
	}
	s.offers[key] = o
	return o, true, nil
}

func (s *MemoryStore) OffersForGame(_ context.Context, gameID string) ([]model.SlotOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.SlotOffer
	for key, o := range s.offers {
		if key.game == gameID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (s *MemoryStore) PutOffer(_ context.Context, o model.SlotOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[offerKey{o.GameID, o.PlayerID}] = o
	return nil
}
