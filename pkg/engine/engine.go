// Package engine owns the in-memory working copy of every active game
// and serializes mutations against it. All writes to one game go
// through one lock: a mutation validates and commits against a state
// no concurrent writer can move underneath it.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/starfall-games/starfall/pkg/broadcast"
	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/services"
)

// conflictRetries bounds reload-and-retry when another node wins a
// commit race on the shared database.
const conflictRetries = 3

// MutationFunc runs a validated mutation against the working copy. It
// returns the event to broadcast on success. Implementations come from
// the services package.
type MutationFunc func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error)

type gameEntry struct {
	mu   sync.Mutex
	game *gametypes.Game
}

// Engine loads games on demand and runs mutations one at a time per
// game. Events publish to the broadcaster only after the repository
// commit succeeds.
type Engine struct {
	repository  repositories.GameRepository
	broadcaster *broadcast.Broadcaster
	relay       *broadcast.RedisRelay

	mu    sync.Mutex
	games map[string]*gameEntry
}

type NewEngineOptions struct {
	Repository  repositories.GameRepository
	Broadcaster *broadcast.Broadcaster
	// Relay is optional; when set, published events are also relayed
	// over Redis for gateways on other nodes.
	Relay *broadcast.RedisRelay
}

func NewEngine(opts NewEngineOptions) *Engine {
	return &Engine{
		repository:  opts.Repository,
		broadcaster: opts.Broadcaster,
		relay:       opts.Relay,
		games:       make(map[string]*gameEntry),
	}
}

func (e *Engine) entry(ctx context.Context, gameID string) (*gameEntry, error) {
	e.mu.Lock()
	entry, ok := e.games[gameID]
	if !ok {
		entry = &gameEntry{}
		e.games[gameID] = entry
	}
	e.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.game == nil {
		game, err := e.repository.FindGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}
		entry.game = game
	}
	return entry, nil
}

// Mutate resolves the acting player and runs the mutation under the
// game's write lock. A commit conflict reloads the working copy from
// the repository and retries; any other repository failure also
// reloads, because the in-memory copy may have been mutated ahead of a
// commit that never happened.
func (e *Engine) Mutate(ctx context.Context, gameID, userID string, fn MutationFunc) (*events.Event, error) {
	entry, err := e.entry(ctx, gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	var ev *events.Event
	for attempt := 0; ; attempt++ {
		player := entry.game.PlayerByUserID(userID)
		if player == nil {
			return nil, services.NewValidationError("You are not a player in this game.")
		}

		ev, err = fn(ctx, entry.game, player)
		if err == nil {
			break
		}

		if services.IsValidationError(err) {
			// Validation happens before any write; the working copy is
			// still clean.
			return nil, err
		}

		if reloadErr := e.reloadLocked(ctx, entry, gameID); reloadErr != nil {
			return nil, fmt.Errorf("failed to reload game %s after mutation failure: %w", gameID, reloadErr)
		}

		if !repositories.IsConflict(err) || attempt >= conflictRetries {
			return nil, err
		}
		log.Debug("Retrying mutation for game %s after commit conflict (attempt %d)", gameID, attempt+1)
	}

	e.broadcaster.Publish(ev)
	if e.relay != nil {
		if relayErr := e.relay.Publish(ctx, ev); relayErr != nil {
			log.Error("Failed to relay event seq %d for game %s: %v", ev.Seq, ev.GameID, relayErr)
		}
	}

	return ev, nil
}

func (e *Engine) reloadLocked(ctx context.Context, entry *gameEntry, gameID string) error {
	game, err := e.repository.FindGameByID(ctx, gameID)
	if err != nil {
		return err
	}
	entry.game = game
	return nil
}

// SaveAll writes every loaded working copy back to the repository.
// Per-op batches already persist mutation writes; this additionally
// persists derived fields such as player stats.
func (e *Engine) SaveAll(ctx context.Context) {
	e.mu.Lock()
	entries := make(map[string]*gameEntry, len(e.games))
	for id, entry := range e.games {
		entries[id] = entry
	}
	e.mu.Unlock()

	for id, entry := range entries {
		entry.mu.Lock()
		if entry.game != nil {
			if err := e.repository.SaveGame(ctx, entry.game); err != nil {
				log.Error("Failed to save game %s: %v", id, err)
			}
		}
		entry.mu.Unlock()
	}
}

// Snapshot returns a deep copy of the game plus the sequence number it
// reflects, for bootstrapping mirrors.
func (e *Engine) Snapshot(ctx context.Context, gameID string) (*gametypes.Game, uint64, error) {
	entry, err := e.entry(ctx, gameID)
	if err != nil {
		return nil, 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	clone, err := entry.game.Clone()
	if err != nil {
		return nil, 0, err
	}
	return clone, e.broadcaster.Seq(gameID), nil
}

// MutateGame is Mutate for flows that do not resolve an acting player
// up front, such as joining an empty slot.
func (e *Engine) MutateGame(ctx context.Context, gameID string, fn func(ctx context.Context, game *gametypes.Game) (*events.Event, error)) (*events.Event, error) {
	entry, err := e.entry(ctx, gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	var ev *events.Event
	for attempt := 0; ; attempt++ {
		ev, err = fn(ctx, entry.game)
		if err == nil {
			break
		}

		if services.IsValidationError(err) {
			return nil, err
		}

		if reloadErr := e.reloadLocked(ctx, entry, gameID); reloadErr != nil {
			return nil, fmt.Errorf("failed to reload game %s after mutation failure: %w", gameID, reloadErr)
		}

		if !repositories.IsConflict(err) || attempt >= conflictRetries {
			return nil, err
		}
		log.Debug("Retrying mutation for game %s after commit conflict (attempt %d)", gameID, attempt+1)
	}

	e.broadcaster.Publish(ev)
	if e.relay != nil {
		if relayErr := e.relay.Publish(ctx, ev); relayErr != nil {
			log.Error("Failed to relay event seq %d for game %s: %v", ev.Seq, ev.GameID, relayErr)
		}
	}

	return ev, nil
}
