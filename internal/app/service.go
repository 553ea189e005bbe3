// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/matchday/engine/internal/adapters/audit"
	"github.com/matchday/engine/internal/adapters/notify"
	"github.com/matchday/engine/internal/adapters/repository"
	"github.com/matchday/engine/internal/domain/balance"
	"github.com/matchday/engine/internal/domain/cache"
	"github.com/matchday/engine/internal/domain/chemistry"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/ratings"
	"github.com/matchday/engine/internal/domain/streak"
	"github.com/matchday/engine/internal/domain/types"
	"github.com/matchday/engine/internal/domain/waitlist"
	"github.com/matchday/engine/pkg/logger"
	"github.com/matchday/engine/pkg/metrics"
)

// casMaxRetries bounds optimistic-write retries per operation.
const casMaxRetries = 8

// Service implements the engine operations behind the HTTP API. Domain
// packages stay pure; this layer owns persistence, retries, audit, and
// notifications.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	aggregator  *ratings.Aggregator
	analyzer    *chemistry.Analyzer
	shield      *streak.Engine
	ranker      *waitlist.Ranker
	balancer    *balance.Balancer
	assignments *cache.Cache[types.BalancedTeams]
	dispatcher  notify.Dispatcher
	auditSink   audit.Sink

	// Configuration
	cacheTTL         time.Duration
	offerWindowHours float64
	pairMin          int
	rivalryMin       int
	trioMin          int
	confidenceK      int
	attackWeight     float64
	defenseWeight    float64
	tokenCap         int
	issueInterval    int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects a persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDispatcher injects the outbound notification dispatcher.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithAuditSink injects the admin audit sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.auditSink = sink
		}
	}
}

// WithAssignmentTTL overrides the balanced-assignment validity window.
func WithAssignmentTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithOfferWindowHours overrides the slot-offer expansion horizon.
func WithOfferWindowHours(h float64) Option {
	return func(s *Service) {
		if h > 0 {
			s.offerWindowHours = h
		}
	}
}

// WithChemistryThresholds overrides the minimum sample sizes and the
// confidence parameter K.
func WithChemistryThresholds(pairMin, rivalryMin, trioMin, confidenceK int) Option {
	return func(s *Service) {
		if pairMin > 0 {
			s.pairMin = pairMin
		}
		if rivalryMin > 0 {
			s.rivalryMin = rivalryMin
		}
		if trioMin > 0 {
			s.trioMin = trioMin
		}
		if confidenceK > 0 {
			s.confidenceK = confidenceK
		}
	}
}

// WithBalanceWeights overrides the attack/defense ranking weights.
func WithBalanceWeights(attack, defense float64) Option {
	return func(s *Service) {
		if attack > 0 {
			s.attackWeight = attack
		}
		if defense > 0 {
			s.defenseWeight = defense
		}
	}
}

// WithTokenPolicy overrides the shield token cap and issue interval.
func WithTokenPolicy(cap, interval int) Option {
	return func(s *Service) {
		if cap > 0 {
			s.tokenCap = cap
		}
		if interval > 0 {
			s.issueInterval = interval
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:         time.Hour,
		offerWindowHours: 48,
		pairMin:          10,
		rivalryMin:       5,
		trioMin:          3,
		confidenceK:      10,
		attackWeight:     1,
		defenseWeight:    1,
		tokenCap:         model.MaxShieldTokens,
		issueInterval:    model.TokenIssueInterval,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matchmaking service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.NewRecorder()
	}
	// Exact repeats of a decision must not reach the same recipient twice.
	s.dispatcher = notify.Deduped(s.dispatcher)
	if s.auditSink == nil {
		s.auditSink = audit.NewMemorySink()
	}

	s.aggregator = ratings.New()
	s.analyzer = chemistry.New(
		chemistry.WithPairMinGames(s.pairMin),
		chemistry.WithRivalryMinGames(s.rivalryMin),
		chemistry.WithTrioMinGames(s.trioMin),
		chemistry.WithConfidenceK(s.confidenceK),
	)
	s.shield = streak.NewEngine(
		streak.WithTokenCap(s.tokenCap),
		streak.WithIssueInterval(s.issueInterval),
	)
	s.ranker = waitlist.New(waitlist.WithWindowHours(s.offerWindowHours))
	s.balancer = balance.New(balance.WithWeights(s.attackWeight, s.defenseWeight))
	s.assignments = cache.New(cache.WithTTL[types.BalancedTeams](s.cacheTTL))

	s.started = true
	s.logger.Info(ctx, "matchmaking service started",
		logger.Duration("assignmentTTL", s.cacheTTL),
		logger.Float64("offerWindowHours", s.offerWindowHours),
		logger.Int("tokenCap", s.tokenCap),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping matchmaking service...")
	s.started = false
	s.logger.Info(context.Background(), "matchmaking service stopped")
}

// mutatePlayer applies fn to the player row under optimistic concurrency:
// read, mutate a copy, compare-and-swap, retry with backoff on version
// conflicts. fn must be idempotent across attempts. Returns the written row.
func (s *Service) mutatePlayer(ctx context.Context, playerID string, fn func(p *model.Player) error) (model.Player, error) {
	var out model.Player
	op := func() error {
		p, err := s.store.Player(ctx, playerID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := fn(&p); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.store.CompareAndSwapPlayer(ctx, p); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				metrics.RecordCASConflict()
				return err
			}
			return backoff.Permanent(err)
		}
		out = p
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.MaxInterval = 50 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, casMaxRetries), ctx)); err != nil {
		return model.Player{}, err
	}
	return out, nil
}

// appendLedger records one token mutation in the append-only ledger.
func (s *Service) appendLedger(ctx context.Context, playerID, gameID string, action model.TokenAction, before, after int, reason, actorID string) {
	e := model.TokenLedgerEntry{
		ID:           uuid.NewString(),
		PlayerID:     playerID,
		GameID:       gameID,
		Action:       action,
		TokensBefore: before,
		TokensAfter:  after,
		Reason:       reason,
		ActorID:      actorID,
		At:           time.Now().UTC(),
	}
	if err := s.store.AppendLedger(ctx, e); err != nil {
		s.logger.Error(ctx, "ledger append failed", logger.Error(err), logger.String("playerID", playerID))
	}
	metrics.RecordShieldTransition(string(action))
}

func (s *Service) audit(ctx context.Context, action, playerID, gameID, actorID, reason string, before, after int) {
	if err := s.auditSink.Record(ctx, audit.NewEntry(action, playerID, gameID, actorID, reason, before, after)); err != nil {
		s.logger.Error(ctx, "audit record failed", logger.Error(err), logger.String("action", action))
	}
}

func (s *Service) notify(ctx context.Context, playerID string, kind notify.Kind, ref, body string) {
	msg := notify.Message{PlayerID: playerID, Kind: kind, Ref: ref, Body: body, At: time.Now().UTC()}
	if err := s.dispatcher.Notify(ctx, msg); err != nil {
		s.logger.Warn(ctx, "notification dispatch failed", logger.Error(err), logger.String("kind", string(kind)))
	}
}

// Players, games, registrations.

// CreatePlayer registers a new player row. Existing rows are replaced only
// when the id is unknown; re-creating a known player is a conflict.
func (s *Service) CreatePlayer(ctx context.Context, id, name string) error {
	if id == "" {
		return fmt.Errorf("%w: player id required", ErrValidation)
	}
	if _, err := s.store.Player(ctx, id); err == nil {
		return fmt.Errorf("%w: player %q already exists", ErrConflict, id)
	}
	return s.store.PutPlayer(ctx, model.Player{ID: id, Name: name})
}

// CreateGame records an upcoming game instance.
func (s *Service) CreateGame(ctx context.Context, id string, kickoffAt time.Time) error {
	if id == "" {
		return fmt.Errorf("%w: game id required", ErrValidation)
	}
	if _, err := s.store.Game(ctx, id); err == nil {
		return fmt.Errorf("%w: game %q already exists", ErrConflict, id)
	}
	return s.store.PutGame(ctx, model.Game{ID: id, KickoffAt: kickoffAt})
}

// Register records a player's registration for a game.
func (s *Service) Register(ctx context.Context, reg model.GameRegistration) error {
	if reg.GameID == "" || reg.PlayerID == "" {
		return fmt.Errorf("%w: game id and player id required", ErrValidation)
	}
	if _, err := s.store.Game(ctx, reg.GameID); err != nil {
		return err
	}
	if _, err := s.store.Player(ctx, reg.PlayerID); err != nil {
		return err
	}
	if reg.Status == "" {
		reg.Status = model.StatusPending
	}
	if reg.Method == "" {
		reg.Method = model.SelectionNone
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	return s.store.PutRegistration(ctx, reg)
}

// Ratings.

const maxMetric = 10.0

// SubmitRating stores one rater's assessment and synchronously recomputes
// the rated player's derived attributes from the full rating set.
func (s *Service) SubmitRating(ctx context.Context, r model.Rating) error {
	if r.RaterID == "" || r.RatedID == "" {
		return fmt.Errorf("%w: rater and rated ids required", ErrValidation)
	}
	if r.RaterID == r.RatedID {
		return fmt.Errorf("%w: players cannot rate themselves", ErrValidation)
	}
	for _, v := range []*float64{r.Attack, r.Defense, r.GameIQ, r.Goalkeeping} {
		if v != nil && (*v < 0 || *v > maxMetric) {
			return fmt.Errorf("%w: metrics must be within [0,%g]", ErrValidation, maxMetric)
		}
	}
	if err := s.store.PutRating(ctx, r); err != nil {
		return err
	}
	return s.recomputeDerived(ctx, r.RatedID)
}

// DeleteRating removes one rater's assessment and recomputes the aggregate.
func (s *Service) DeleteRating(ctx context.Context, raterID, ratedID string) error {
	if raterID == "" || ratedID == "" {
		return fmt.Errorf("%w: rater and rated ids required", ErrValidation)
	}
	if err := s.store.DeleteRating(ctx, raterID, ratedID); err != nil {
		return err
	}
	return s.recomputeDerived(ctx, ratedID)
}

func (s *Service) recomputeDerived(ctx context.Context, ratedID string) error {
	rs, err := s.store.RatingsFor(ctx, ratedID)
	if err != nil {
		return err
	}
	d := s.aggregator.Aggregate(ratedID, rs)
	if err := s.store.PutDerived(ctx, d); err != nil {
		return err
	}
	metrics.RecordDerivedRecompute()
	s.logger.Debug(ctx, "derived attributes recomputed",
		logger.String("playerID", ratedID),
		logger.Int("ratings", len(rs)),
	)
	return nil
}

// PlayerAttributes returns the stored aggregate for one player.
func (s *Service) PlayerAttributes(ctx context.Context, playerID string) (model.DerivedAttributes, error) {
	return s.store.DerivedFor(ctx, playerID)
}

// Experience.

// PlayerXP computes the player's experience score under the requested
// formula. An empty formula selects the step variant.
func (s *Service) PlayerXP(ctx context.Context, playerID, formula string) (int, streak.Formula, error) {
	f, err := streak.ParseFormula(formula)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	p, err := s.store.Player(ctx, playerID)
	if err != nil {
		return 0, "", err
	}
	history, err := s.participationHistory(ctx, playerID)
	if err != nil {
		return 0, "", err
	}
	xp := streak.ComputeXP(p, history, f)
	metrics.RecordXPCalculation(string(f))
	return xp, f, nil
}

// participationHistory converts the player's completed-game registrations
// into recency-indexed appearances, newest first. GamesAgo counts positions
// in the global completed-game sequence so inactivity ages contributions.
func (s *Service) participationHistory(ctx context.Context, playerID string) ([]streak.Appearance, error) {
	games, err := s.store.CompletedGames(ctx)
	if err != nil {
		return nil, err
	}
	regs, err := s.store.RegistrationsForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	var out []streak.Appearance
	for i, g := range games {
		reg, ok := regs[g.ID]
		if !ok {
			continue
		}
		out = append(out, streak.Appearance{
			GamesAgo:   i,
			Status:     reg.Status,
			Paid:       reg.Paid,
			DroppedOut: reg.Status == model.StatusDroppedOut,
			Late:       reg.Late,
		})
	}
	return out, nil
}

// Shield tokens.

// UseShieldToken spends a token ahead of an absence for gameID, freezing
// the player's streak at its current value.
func (s *Service) UseShieldToken(ctx context.Context, playerID, gameID, actorID string) (model.ShieldTokenUsage, error) {
	if playerID == "" || gameID == "" {
		return model.ShieldTokenUsage{}, fmt.Errorf("%w: player id and game id required", ErrValidation)
	}
	if _, err := s.store.Game(ctx, gameID); err != nil {
		return model.ShieldTokenUsage{}, err
	}
	now := time.Now().UTC()

	var usage model.ShieldTokenUsage
	p, err := s.mutatePlayer(ctx, playerID, func(p *model.Player) error {
		u, err := s.shield.Use(p, gameID, now)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEligibility, err)
		}
		usage = u
		return nil
	})
	if err != nil {
		return model.ShieldTokenUsage{}, err
	}

	if err := s.store.PutUsage(ctx, usage); err != nil {
		return model.ShieldTokenUsage{}, err
	}
	if reg, err := s.store.Registration(ctx, gameID, playerID); err == nil {
		// Withdraw the registration so the absence settles as a protected
		// dropout rather than an attendance or a penalized miss.
		reg.Status = model.StatusDroppedOut
		reg.UsingToken = true
		if err := s.store.PutRegistration(ctx, reg); err != nil {
			s.logger.Warn(ctx, "registration withdrawal failed", logger.Error(err))
		}
		s.assignments.Invalidate(ctx, gameID)
	}
	s.appendLedger(ctx, playerID, gameID, model.TokenUsed, p.ShieldTokens+1, p.ShieldTokens, "shield activated", actorID)
	s.notify(ctx, playerID, notify.KindShieldUsed, usage.ID, fmt.Sprintf("shield active for game %s, streak %d protected", gameID, usage.FrozenStreak))
	s.audit(ctx, string(model.TokenUsed), playerID, gameID, actorID, "shield activated", p.ShieldTokens+1, p.ShieldTokens)
	return usage, nil
}

// IssueShieldToken grants one token by admin action.
func (s *Service) IssueShieldToken(ctx context.Context, playerID, actorID, reason string) error {
	p, err := s.mutatePlayer(ctx, playerID, func(p *model.Player) error {
		if err := s.shield.Issue(p); err != nil {
			return fmt.Errorf("%w: %w", ErrEligibility, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.appendLedger(ctx, playerID, "", model.TokenIssued, p.ShieldTokens-1, p.ShieldTokens, reason, actorID)
	s.audit(ctx, string(model.TokenIssued), playerID, "", actorID, reason, p.ShieldTokens-1, p.ShieldTokens)
	return nil
}

// RemoveShieldProtection strips an active protection by admin action. The
// spent token is not refunded and the natural streak is untouched.
func (s *Service) RemoveShieldProtection(ctx context.Context, playerID, actorID, reason string) error {
	u, ok, err := s.store.ActiveUsage(ctx, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no active shield protection", ErrEligibility)
	}
	now := time.Now().UTC()

	p, err := s.mutatePlayer(ctx, playerID, func(p *model.Player) error {
		p.ShieldActive = false
		p.ProtectedStreakBase = 0
		return nil
	})
	if err != nil {
		return err
	}
	u.Active = false
	u.ClosedAt = now
	if err := s.store.PutUsage(ctx, u); err != nil {
		return err
	}
	s.appendLedger(ctx, playerID, u.GameID, model.TokenRemoved, p.ShieldTokens, p.ShieldTokens, reason, actorID)
	s.notify(ctx, playerID, notify.KindShieldRemoved, u.ID, fmt.Sprintf("shield protection for game %s removed", u.GameID))
	s.audit(ctx, string(model.TokenRemoved), playerID, u.GameID, actorID, reason, p.ShieldTokens, p.ShieldTokens)
	return nil
}

// ReturnShieldToken closes an active protection and refunds the token
// unless the player is already at capacity.
func (s *Service) ReturnShieldToken(ctx context.Context, playerID, actorID, reason string) error {
	u, ok, err := s.store.ActiveUsage(ctx, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no active shield protection", ErrEligibility)
	}
	now := time.Now().UTC()

	var restored bool
	var closed model.ShieldTokenUsage
	p, err := s.mutatePlayer(ctx, playerID, func(p *model.Player) error {
		uc := u
		restored = s.shield.Return(p, &uc, now)
		closed = uc
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.store.PutUsage(ctx, closed); err != nil {
		return err
	}
	before := p.ShieldTokens
	if restored {
		before = p.ShieldTokens - 1
	}
	s.appendLedger(ctx, playerID, u.GameID, model.TokenReturned, before, p.ShieldTokens, reason, actorID)
	s.audit(ctx, string(model.TokenReturned), playerID, u.GameID, actorID, reason, before, p.ShieldTokens)
	return nil
}

// RemoveTokens deducts tokens by admin action.
func (s *Service) RemoveTokens(ctx context.Context, playerID string, count int, actorID, reason string) error {
	if count <= 0 {
		return fmt.Errorf("%w: count must be positive", ErrValidation)
	}
	var before int
	p, err := s.mutatePlayer(ctx, playerID, func(p *model.Player) error {
		if p.ShieldTokens < count {
			return fmt.Errorf("%w: player holds %d tokens, cannot remove %d", ErrEligibility, p.ShieldTokens, count)
		}
		before = p.ShieldTokens
		p.ShieldTokens -= count
		return nil
	})
	if err != nil {
		return err
	}
	s.appendLedger(ctx, playerID, "", model.TokenRemoved, before, p.ShieldTokens, reason, actorID)
	s.audit(ctx, string(model.TokenRemoved), playerID, "", actorID, reason, before, p.ShieldTokens)
	return nil
}

// ResetTokenProgress zeroes the played-game counter toward the next token.
func (s *Service) ResetTokenProgress(ctx context.Context, playerID, actorID, reason string) error {
	p, err := s.mutatePlayer(ctx, playerID, func(p *model.Player) error {
		p.TokenProgress = 0
		return nil
	})
	if err != nil {
		return err
	}
	s.appendLedger(ctx, playerID, "", model.TokenProgressReset, p.ShieldTokens, p.ShieldTokens, reason, actorID)
	s.audit(ctx, string(model.TokenProgressReset), playerID, "", actorID, reason, p.ShieldTokens, p.ShieldTokens)
	return nil
}

// TokenLedger returns the append-only token history for one player.
func (s *Service) TokenLedger(ctx context.Context, playerID string) ([]model.TokenLedgerEntry, error) {
	return s.store.LedgerFor(ctx, playerID)
}

// Player returns the stored player row.
func (s *Service) Player(ctx context.Context, playerID string) (model.Player, error) {
	return s.store.Player(ctx, playerID)
}

// Chemistry.

// ChemistryPairs computes same-team pair statistics for the candidate pool.
func (s *Service) ChemistryPairs(ctx context.Context, candidates []string) ([]types.ChemistryRow, error) {
	games, err := s.store.CompletedGames(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows := s.analyzer.Pairs(candidates, games)
	metrics.RecordChemistryBatch(float64(time.Since(start).Milliseconds()))
	return rows, nil
}

// ChemistryRivalries computes head-to-head statistics for the candidate pool.
func (s *Service) ChemistryRivalries(ctx context.Context, candidates []string) ([]types.RivalryRow, error) {
	games, err := s.store.CompletedGames(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows := s.analyzer.Rivalries(candidates, games)
	metrics.RecordChemistryBatch(float64(time.Since(start).Milliseconds()))
	return rows, nil
}

// ChemistryTrios computes same-team trio statistics for the candidate pool.
func (s *Service) ChemistryTrios(ctx context.Context, candidates []string) ([]types.TrioRow, error) {
	games, err := s.store.CompletedGames(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows := s.analyzer.Trios(candidates, games)
	metrics.RecordChemistryBatch(float64(time.Since(start).Milliseconds()))
	return rows, nil
}

// Team balancing.

// BalancedTeams returns the cached assignment for a game, computing it when
// absent or expired. Concurrent requests for the same game collapse onto a
// single computation.
func (s *Service) BalancedTeams(ctx context.Context, gameID string) (types.BalancedTeams, error) {
	if _, err := s.store.Game(ctx, gameID); err != nil {
		return types.BalancedTeams{}, err
	}
	v, hit, err := s.assignments.GetOrCompute(ctx, gameID, func(ctx context.Context) (types.BalancedTeams, error) {
		return s.computeTeams(ctx, gameID)
	})
	if err != nil {
		return types.BalancedTeams{}, err
	}
	if hit {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return v, nil
}

func (s *Service) computeTeams(ctx context.Context, gameID string) (types.BalancedTeams, error) {
	start := time.Now()
	regs, err := s.store.RegistrationsForGame(ctx, gameID)
	if err != nil {
		return types.BalancedTeams{}, err
	}

	var inputs []balance.PlayerInput
	for _, reg := range regs {
		if reg.Status != model.StatusSelected {
			continue
		}
		in := balance.PlayerInput{PlayerID: reg.PlayerID}
		if d, err := s.store.DerivedFor(ctx, reg.PlayerID); err == nil {
			in.Attack = d.Attack
			in.Defense = d.Defense
			in.GameIQ = d.GameIQ
		} else if !errors.Is(err, repository.ErrNotFound) {
			return types.BalancedTeams{}, err
		}
		if p, err := s.store.Player(ctx, reg.PlayerID); err == nil {
			in.Multiplier = streak.ActiveMultiplier(p)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return types.BalancedTeams{}, err
		}
		if xp, _, err := s.PlayerXP(ctx, reg.PlayerID, string(streak.FormulaStep)); err == nil {
			in.Experience = xp
		} else if !errors.Is(err, repository.ErrNotFound) {
			return types.BalancedTeams{}, err
		}
		inputs = append(inputs, in)
	}

	asg := s.balancer.Split(inputs)
	out := types.BalancedTeams{
		GameID: gameID,
		Teams: map[string][]types.TeamMember{
			balance.TeamA: members(asg.TeamA),
			balance.TeamB: members(asg.TeamB),
		},
		Stats:      asg.Stats,
		ComputedAt: time.Now().UTC().Format(time.RFC3339),
	}
	metrics.RecordBalanceComputation(float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "teams balanced",
		logger.String("gameID", gameID),
		logger.Int("players", len(inputs)),
		logger.Float64("totalDifferential", asg.Stats.TotalDifferential),
	)
	return out, nil
}

func members(team []balance.PlayerInput) []types.TeamMember {
	out := make([]types.TeamMember, len(team))
	for i, p := range team {
		out[i] = types.TeamMember{
			PlayerID:   p.PlayerID,
			Attack:     p.Attack,
			Defense:    p.Defense,
			GameIQ:     p.GameIQ,
			Experience: p.Experience,
		}
	}
	return out
}

// Waitlist.

// Reserves returns the game's reserve list ranked by effective XP.
func (s *Service) Reserves(ctx context.Context, gameID string) ([]types.ReserveEntry, error) {
	cands, err := s.reserveCandidates(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return entries(s.ranker.Rank(cands)), nil
}

// OfferCandidates returns the reserves currently eligible for a slot offer
// given the time remaining before kickoff.
func (s *Service) OfferCandidates(ctx context.Context, gameID string, hoursUntil float64) ([]types.ReserveEntry, error) {
	cands, err := s.reserveCandidates(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ranked := s.ranker.Rank(cands)
	n := s.ranker.OfferedCount(len(ranked), hoursUntil)
	return entries(ranked[:n]), nil
}

// CreateSlotOffers issues pending offers to every currently eligible
// reserve. Creation is idempotent per (game, player); repeats extend the
// recipient set only as the window widens.
func (s *Service) CreateSlotOffers(ctx context.Context, gameID string, hoursUntil float64) ([]model.SlotOffer, error) {
	cands, err := s.reserveCandidates(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ranked := s.ranker.Rank(cands)
	n := s.ranker.OfferedCount(len(ranked), hoursUntil)

	now := time.Now().UTC()
	out := make([]model.SlotOffer, 0, n)
	for _, c := range ranked[:n] {
		offer, created, err := s.store.CreateOffer(ctx, model.SlotOffer{
			ID:        uuid.NewString(),
			GameID:    gameID,
			PlayerID:  c.PlayerID,
			Status:    model.OfferPending,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		if created {
			metrics.RecordOfferCreated()
			s.notify(ctx, c.PlayerID, notify.KindSlotOffer, offer.ID, fmt.Sprintf("a slot opened up in game %s", gameID))
		}
		out = append(out, offer)
	}
	return out, nil
}

// AcceptSlotOffer promotes the accepting reserve to selected and voids the
// game's remaining pending offers.
func (s *Service) AcceptSlotOffer(ctx context.Context, gameID, playerID string) error {
	offers, err := s.store.OffersForGame(ctx, gameID)
	if err != nil {
		return err
	}
	var accepted *model.SlotOffer
	for i := range offers {
		if offers[i].PlayerID == playerID {
			accepted = &offers[i]
			break
		}
	}
	if accepted == nil {
		return fmt.Errorf("%w: no offer for player %q", ErrEligibility, playerID)
	}
	if accepted.Status != model.OfferPending {
		return fmt.Errorf("%w: offer already %s", ErrConflict, accepted.Status)
	}

	accepted.Status = model.OfferAccepted
	if err := s.store.PutOffer(ctx, *accepted); err != nil {
		return err
	}

	reg, err := s.store.Registration(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	reg.Status = model.StatusSelected
	reg.Method = model.SelectionMerit
	if err := s.store.PutRegistration(ctx, reg); err != nil {
		return err
	}

	for _, o := range offers {
		if o.PlayerID == playerID || o.Status != model.OfferPending {
			continue
		}
		o.Status = model.OfferVoided
		if err := s.store.PutOffer(ctx, o); err != nil {
			return err
		}
		s.notify(ctx, o.PlayerID, notify.KindOfferVoided, o.ID, fmt.Sprintf("the slot in game %s was taken", gameID))
	}

	metrics.RecordOfferAccepted()
	s.notify(ctx, playerID, notify.KindOfferAccepted, accepted.ID, fmt.Sprintf("you are in for game %s", gameID))
	s.assignments.Invalidate(ctx, gameID)
	return nil
}

func (s *Service) reserveCandidates(ctx context.Context, gameID string) ([]waitlist.Candidate, error) {
	if _, err := s.store.Game(ctx, gameID); err != nil {
		return nil, err
	}
	regs, err := s.store.RegistrationsForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var out []waitlist.Candidate
	for _, reg := range regs {
		if reg.Status != model.StatusReserve {
			continue
		}
		c := waitlist.Candidate{PlayerID: reg.PlayerID, RegisteredAt: reg.RegisteredAt}
		if p, err := s.store.Player(ctx, reg.PlayerID); err == nil {
			c.Caps = p.GamesPlayed
			c.Streak = p.EffectiveStreak()
			c.Bonuses = p.RegistrationStreak
			c.Penalties = p.UnpaidGames
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		all, err := s.store.RegistrationsForPlayer(ctx, reg.PlayerID)
		if err != nil {
			return nil, err
		}
		for _, r := range all {
			if r.Status == model.StatusDroppedOut && !r.UsingToken {
				c.DropoutPenalties++
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func entries(ranked []waitlist.Candidate) []types.ReserveEntry {
	out := make([]types.ReserveEntry, len(ranked))
	for i, c := range ranked {
		out[i] = types.ReserveEntry{
			Rank:         i + 1,
			PlayerID:     c.PlayerID,
			EffectiveXP:  waitlist.EffectiveXP(c),
			RegisteredAt: c.RegisteredAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

// Game lifecycle.

// CompleteGame records a final result and applies all attendance, streak,
// and shield consequences. The declared outcome must agree with the scores.
func (s *Service) CompleteGame(ctx context.Context, gameID string, teamA, teamB []string, scoreA, scoreB int, outcome model.Outcome) error {
	g, err := s.store.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Completed {
		return fmt.Errorf("%w: game %q already completed", ErrConflict, gameID)
	}
	if g.Canceled {
		return fmt.Errorf("%w: game %q was canceled", ErrEligibility, gameID)
	}

	g.TeamA = teamA
	g.TeamB = teamB
	g.ScoreA = scoreA
	g.ScoreB = scoreB
	if outcome == "" {
		outcome = g.DecidedBy()
	} else if outcome != g.DecidedBy() {
		return fmt.Errorf("%w: outcome %q contradicts score %d-%d", ErrConsistency, outcome, scoreA, scoreB)
	}
	g.Outcome = outcome
	g.Completed = true
	if err := s.store.PutGame(ctx, g); err != nil {
		return err
	}

	regs, err := s.store.RegistrationsForGame(ctx, gameID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, reg := range regs {
		if err := s.settleRegistration(ctx, reg, gameID, now); err != nil {
			return err
		}
	}

	// Outstanding offers are moot once the game is played.
	if err := s.voidPendingOffers(ctx, gameID); err != nil {
		return err
	}

	s.assignments.Invalidate(ctx, gameID)
	s.logger.Info(ctx, "game completed",
		logger.String("gameID", gameID),
		logger.String("outcome", string(outcome)),
		logger.Int("registrations", len(regs)),
	)
	return nil
}

// settleRegistration applies one player's attendance consequences for a
// completed game: caps, streaks, payment debt, token progress, and shield
// convergence or break.
func (s *Service) settleRegistration(ctx context.Context, reg model.GameRegistration, gameID string, now time.Time) error {
	usage, hasUsage, err := s.store.ActiveUsage(ctx, reg.PlayerID)
	if err != nil {
		return err
	}

	var granted, converged, broken bool
	var closed model.ShieldTokenUsage
	p, err := s.mutatePlayer(ctx, reg.PlayerID, func(p *model.Player) error {
		granted, converged, broken = false, false, false
		switch reg.Status {
		case model.StatusSelected:
			p.GamesPlayed++
			p.CurrentStreak++
			p.RegistrationStreak++
			if !reg.Paid {
				p.UnpaidGames++
			}
			granted = s.shield.AccrueProgress(p)
			if hasUsage {
				uc := usage
				if s.shield.Converge(p, &uc, gameID, now) {
					converged = true
					closed = uc
				}
			}
		case model.StatusReserve:
			p.RegistrationStreak++
		case model.StatusDroppedOut:
			p.RegistrationStreak = 0
			if hasUsage && !reg.UsingToken && usage.GameID != gameID {
				// A second unprotected miss during the protection window.
				uc := usage
				s.shield.Break(p, &uc, now)
				broken = true
				closed = uc
			} else {
				// The natural streak always resets on a miss; an active
				// shield carries the frozen base through EffectiveStreak.
				p.CurrentStreak = 0
			}
		case model.StatusPending:
			// Never confirmed either way; no effect.
		}
		return nil
	})
	if err != nil {
		// Players may be settled out of band (e.g. guest entries).
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if granted {
		s.appendLedger(ctx, reg.PlayerID, gameID, model.TokenIssued, p.ShieldTokens-1, p.ShieldTokens, "earned by attendance", "")
	}
	if converged || broken {
		if err := s.store.PutUsage(ctx, closed); err != nil {
			return err
		}
		action := model.TokenConverged
		reason := "streak caught up with protected base"
		if broken {
			action = model.TokenBroken
			reason = "missed again during protection window"
		}
		s.appendLedger(ctx, reg.PlayerID, gameID, action, p.ShieldTokens, p.ShieldTokens, reason, "")
		s.notify(ctx, reg.PlayerID, notify.KindShieldRemoved, closed.ID, fmt.Sprintf("%s (game %s)", reason, gameID))
	}
	return nil
}

// CancelGame voids a game before completion. Shield tokens spent on it are
// returned and outstanding offers voided.
func (s *Service) CancelGame(ctx context.Context, gameID string) error {
	g, err := s.store.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Completed {
		return fmt.Errorf("%w: game %q already completed", ErrConflict, gameID)
	}
	if g.Canceled {
		return fmt.Errorf("%w: game %q already canceled", ErrConflict, gameID)
	}
	g.Canceled = true
	if err := s.store.PutGame(ctx, g); err != nil {
		return err
	}

	now := time.Now().UTC()
	usages, err := s.store.UsagesForGame(ctx, gameID)
	if err != nil {
		return err
	}
	for _, u := range usages {
		if !u.Active {
			continue
		}
		var restored bool
		var closed model.ShieldTokenUsage
		p, err := s.mutatePlayer(ctx, u.PlayerID, func(p *model.Player) error {
			uc := u
			restored = s.shield.Return(p, &uc, now)
			closed = uc
			return nil
		})
		if err != nil {
			return err
		}
		if err := s.store.PutUsage(ctx, closed); err != nil {
			return err
		}
		before := p.ShieldTokens
		if restored {
			before = p.ShieldTokens - 1
		}
		s.appendLedger(ctx, u.PlayerID, gameID, model.TokenReturned, before, p.ShieldTokens, "game canceled", "")
		s.notify(ctx, u.PlayerID, notify.KindShieldRemoved, u.ID, fmt.Sprintf("game %s canceled, shield token returned", gameID))
	}

	if err := s.voidPendingOffers(ctx, gameID); err != nil {
		return err
	}
	s.assignments.Invalidate(ctx, gameID)
	s.logger.Info(ctx, "game canceled", logger.String("gameID", gameID))
	return nil
}

func (s *Service) voidPendingOffers(ctx context.Context, gameID string) error {
	offers, err := s.store.OffersForGame(ctx, gameID)
	if err != nil {
		return err
	}
	for _, o := range offers {
		if o.Status != model.OfferPending {
			continue
		}
		o.Status = model.OfferVoided
		if err := s.store.PutOffer(ctx, o); err != nil {
			return err
		}
		s.notify(ctx, o.PlayerID, notify.KindOfferVoided, o.ID, fmt.Sprintf("game %s no longer needs a substitute", gameID))
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started": s.started,
	}

	if s.started {
		players, err := s.store.Players(ctx)
		if err == nil {
			shields := 0
			for _, p := range players {
				if p.ShieldActive {
					shields++
				}
			}
			stats["totalPlayers"] = len(players)
			stats["activeShields"] = shields
			metrics.UpdatePlayersTracked(len(players))
			metrics.UpdateActiveShields(shields)
		}
		games, err := s.store.CompletedGames(ctx)
		if err == nil {
			stats["completedGames"] = len(games)
		}
		stats["cachedAssignments"] = s.assignments.Len()
	}

	return stats
}
