// Package repository defines the engine's persistence interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/matchday/engine/internal/domain/model"
)

// Store provides read/write access to all persisted engine state. All
// methods are safe for concurrent use.
type Store interface {
	// Players.

	// PutPlayer inserts or replaces a player row unconditionally.
	PutPlayer(ctx context.Context, p model.Player) error
	// Player returns a copy of the player row. ErrNotFound if unknown.
	Player(ctx context.Context, id string) (model.Player, error)
	// Players returns copies of all player rows.
	Players(ctx context.Context) ([]model.Player, error)
	// CompareAndSwapPlayer writes p only when the stored version still
	// equals p.Version, bumping the version on success. Returns
	// ErrVersionConflict when another writer got there first; callers
	// re-read and retry.
	CompareAndSwapPlayer(ctx context.Context, p model.Player) error

	// Ratings, one row per (rater, rated).

	// PutRating inserts or overwrites a rating row.
	PutRating(ctx context.Context, r model.Rating) error
	// DeleteRating removes one rater's assessment of a player.
	DeleteRating(ctx context.Context, raterID, ratedID string) error
	// RatingsFor returns all ratings of one rated player.
	RatingsFor(ctx context.Context, ratedID string) ([]model.Rating, error)
	// PutDerived upserts the recomputed aggregate for one player.
	PutDerived(ctx context.Context, d model.DerivedAttributes) error
	// DerivedFor returns the stored aggregate. ErrNotFound if absent.
	DerivedFor(ctx context.Context, playerID string) (model.DerivedAttributes, error)

	// Games and registrations.

	PutGame(ctx context.Context, g model.Game) error
	Game(ctx context.Context, id string) (model.Game, error)
	// CompletedGames returns completed, non-canceled games ordered most
	// recent kickoff first.
	CompletedGames(ctx context.Context) ([]model.Game, error)
	PutRegistration(ctx context.Context, r model.GameRegistration) error
	// Registration returns one (game, player) row. ErrNotFound if absent.
	Registration(ctx context.Context, gameID, playerID string) (model.GameRegistration, error)
	RegistrationsForGame(ctx context.Context, gameID string) ([]model.GameRegistration, error)
	RegistrationsForPlayer(ctx context.Context, playerID string) (map[string]model.GameRegistration, error)

	// Shield usages and the append-only token ledger.

	PutUsage(ctx context.Context, u model.ShieldTokenUsage) error
	// ActiveUsage returns the single active usage for a player, if any.
	ActiveUsage(ctx context.Context, playerID string) (model.ShieldTokenUsage, bool, error)
	UsagesForGame(ctx context.Context, gameID string) ([]model.ShieldTokenUsage, error)
	AppendLedger(ctx context.Context, e model.TokenLedgerEntry) error
	LedgerFor(ctx context.Context, playerID string) ([]model.TokenLedgerEntry, error)

	// Slot offers, idempotent per (game, player).

	// CreateOffer inserts a pending offer unless one already exists for
	// the pair; returns the authoritative row and whether it was created.
	CreateOffer(ctx context.Context, o model.SlotOffer) (model.SlotOffer, bool, error)
	OffersForGame(ctx context.Context, gameID string) ([]model.SlotOffer, error)
	PutOffer(ctx context.Context, o model.SlotOffer) error
}

// nowFunc allows tests to pin time.
type nowFunc func() time.Time
