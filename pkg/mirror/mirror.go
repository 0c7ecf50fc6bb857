// Package mirror maintains a client-side copy of a game by applying
// the server's event stream to a snapshot. Every handler performs the
// same arithmetic as the server so both copies stay bit-identical; any
// event that cannot be applied raises a desync, after which the caller
// must refetch a full snapshot.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
)

// ErrDesync means the mirror can no longer trust its state.
type ErrDesync struct {
	Reason string
}

func (e *ErrDesync) Error() string {
	return fmt.Sprintf("mirror desynchronized: %s", e.Reason)
}

func desync(format string, args ...interface{}) error {
	return &ErrDesync{Reason: fmt.Sprintf(format, args...)}
}

// IsDesync reports whether the error requires a snapshot refresh.
func IsDesync(err error) bool {
	var e *ErrDesync
	return errors.As(err, &e)
}

type handler func(m *Mirror, payload json.RawMessage) error

var handlers = map[events.Type]handler{
	events.TypePlayerJoined:               (*Mirror).onPlayerJoined,
	events.TypePlayerQuit:                 (*Mirror).onPlayerQuit,
	events.TypePlayerReady:                (*Mirror).onPlayerReady,
	events.TypePlayerNotReady:             (*Mirror).onPlayerNotReady,
	events.TypeStarEconomyUpgraded:        (*Mirror).onStarEconomyUpgraded,
	events.TypeStarIndustryUpgraded:       (*Mirror).onStarIndustryUpgraded,
	events.TypeStarScienceUpgraded:        (*Mirror).onStarScienceUpgraded,
	events.TypeStarBulkUpgraded:           (*Mirror).onStarBulkUpgraded,
	events.TypeStarWarpGateBuilt:          (*Mirror).onStarWarpGateBuilt,
	events.TypeStarWarpGateDestroyed:      (*Mirror).onStarWarpGateDestroyed,
	events.TypeStarCarrierBuilt:           (*Mirror).onStarCarrierBuilt,
	events.TypeStarCarrierShipTransferred: (*Mirror).onStarCarrierShipTransferred,
	events.TypeStarAbandoned:              (*Mirror).onStarAbandoned,
	events.TypePlayerDebtSettled:          (*Mirror).onPlayerDebtSettled,
	events.TypeStarSpecialistHired:        (*Mirror).onStarSpecialistHired,
	events.TypeCarrierSpecialistHired:     (*Mirror).onCarrierSpecialistHired,
	events.TypeCarrierWaypointsSaved:      (*Mirror).onCarrierWaypointsSaved,
	events.TypeCarrierWaypointsCulled:     (*Mirror).onCarrierWaypointsCulled,
}

// Mirror is a projected copy of one game.
type Mirror struct {
	game    *gametypes.Game
	lastSeq uint64
}

type NewMirrorOptions struct {
	// Game is the snapshot the mirror starts from.
	Game *gametypes.Game
	// Seq is the sequence number the snapshot reflects.
	Seq uint64
}

func NewMirror(opts NewMirrorOptions) *Mirror {
	return &Mirror{
		game:    opts.Game,
		lastSeq: opts.Seq,
	}
}

// Game exposes the mirrored state. Callers must not mutate it.
func (m *Mirror) Game() *gametypes.Game {
	return m.game
}

// Seq is the sequence number of the last applied event.
func (m *Mirror) Seq() uint64 {
	return m.lastSeq
}

// Apply projects one event onto the mirror. A duplicate delivery
// (sequence at or below the last applied) is skipped silently; a gap
// in the sequence is a desync.
func (m *Mirror) Apply(ev *events.Event) error {
	if ev.GameID != m.game.ID {
		return desync("event for game %s applied to mirror of game %s", ev.GameID, m.game.ID)
	}

	if ev.Seq <= m.lastSeq {
		return nil
	}

	if ev.Seq != m.lastSeq+1 {
		return desync("missed events: have seq %d, received seq %d", m.lastSeq, ev.Seq)
	}

	h, ok := handlers[ev.Type]
	if !ok {
		return desync("unknown event type %s", ev.Type)
	}

	if err := h(m, ev.Payload); err != nil {
		return err
	}

	m.lastSeq = ev.Seq
	return nil
}

func (m *Mirror) star(id string) (*gametypes.Star, error) {
	star := m.game.Star(id)
	if star == nil {
		return nil, desync("star %s not present in mirror", id)
	}
	return star, nil
}

func (m *Mirror) carrier(id string) (*gametypes.Carrier, error) {
	carrier := m.game.Carrier(id)
	if carrier == nil {
		return nil, desync("carrier %s not present in mirror", id)
	}
	return carrier, nil
}

func (m *Mirror) player(id string) (*gametypes.Player, error) {
	player := m.game.Player(id)
	if player == nil {
		return nil, desync("player %s not present in mirror", id)
	}
	return player, nil
}

// statsCount mirrors the server's stat accounting rule: tutorial games
// and defeated players do not accumulate stats.
func (m *Mirror) statsCount(player *gametypes.Player) bool {
	return !m.game.IsTutorial() && !player.Defeated
}

func decode(payload json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return desync("malformed payload: %v", err)
	}
	return nil
}

func (m *Mirror) onPlayerJoined(payload json.RawMessage) error {
	var p events.PlayerJoined
	if err := decode(payload, &p); err != nil {
		return err
	}
	player, err := m.player(p.PlayerID)
	if err != nil {
		return err
	}
	player.Alias = p.Alias
	player.Avatar = p.Avatar
	player.IsEmptySlot = false
	return nil
}

func (m *Mirror) onPlayerQuit(payload json.RawMessage) error {
	var p events.PlayerQuit
	if err := decode(payload, &p); err != nil {
		return err
	}
	player, err := m.player(p.PlayerID)
	if err != nil {
		return err
	}
	player.UserID = ""
	player.Alias = ""
	player.Avatar = ""
	player.IsEmptySlot = true
	player.Ready = false
	return nil
}

func (m *Mirror) onPlayerReady(payload json.RawMessage) error {
	var p events.PlayerReady
	if err := decode(payload, &p); err != nil {
		return err
	}
	player, err := m.player(p.PlayerID)
	if err != nil {
		return err
	}
	player.Ready = true
	return nil
}

func (m *Mirror) onPlayerNotReady(payload json.RawMessage) error {
	var p events.PlayerNotReady
	if err := decode(payload, &p); err != nil {
		return err
	}
	player, err := m.player(p.PlayerID)
	if err != nil {
		return err
	}
	player.Ready = false
	return nil
}

func (m *Mirror) onStarEconomyUpgraded(payload json.RawMessage) error {
	var p events.StarEconomyUpgraded
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	star.Infrastructure.Economy = p.Infrastructure
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.TotalEconomy++
	}
	return nil
}

func (m *Mirror) onStarIndustryUpgraded(payload json.RawMessage) error {
	var p events.StarIndustryUpgraded
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	manufacturingDifference := p.Manufacturing - star.Manufacturing
	star.Infrastructure.Industry = p.Infrastructure
	star.Manufacturing = p.Manufacturing
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.TotalIndustry++
		owner.Stats.NewShips = gametypes.Round2(owner.Stats.NewShips + manufacturingDifference)
	}
	return nil
}

func (m *Mirror) onStarScienceUpgraded(payload json.RawMessage) error {
	var p events.StarScienceUpgraded
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	star.Infrastructure.Science = p.Infrastructure
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.TotalScience++
	}
	return nil
}

func (m *Mirror) onStarBulkUpgraded(payload json.RawMessage) error {
	var p events.StarBulkUpgraded
	if err := decode(payload, &p); err != nil {
		return err
	}
	player, err := m.player(p.PlayerID)
	if err != nil {
		return err
	}
	for _, delta := range p.Stars {
		star, err := m.star(delta.StarID)
		if err != nil {
			return err
		}
		switch p.InfrastructureType {
		case gametypes.InfrastructureTypeEconomy:
			star.Infrastructure.Economy = delta.Infrastructure
		case gametypes.InfrastructureTypeIndustry:
			manufacturingDifference := delta.Manufacturing - star.Manufacturing
			star.Infrastructure.Industry = delta.Infrastructure
			star.Manufacturing = delta.Manufacturing
			if m.statsCount(player) {
				player.Stats.NewShips = gametypes.Round2(player.Stats.NewShips + manufacturingDifference)
			}
		case gametypes.InfrastructureTypeScience:
			star.Infrastructure.Science = delta.Infrastructure
		default:
			return desync("unknown infrastructure type %s", p.InfrastructureType)
		}
	}
	if m.statsCount(player) {
		switch p.InfrastructureType {
		case gametypes.InfrastructureTypeEconomy:
			player.Stats.TotalEconomy += p.Upgraded
		case gametypes.InfrastructureTypeIndustry:
			player.Stats.TotalIndustry += p.Upgraded
		case gametypes.InfrastructureTypeScience:
			player.Stats.TotalScience += p.Upgraded
		}
	}
	return nil
}

func (m *Mirror) onStarWarpGateBuilt(payload json.RawMessage) error {
	var p events.StarWarpGateBuilt
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	star.WarpGate = true
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.WarpGates++
	}
	return nil
}

func (m *Mirror) onStarWarpGateDestroyed(payload json.RawMessage) error {
	var p events.StarWarpGateDestroyed
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	star.WarpGate = false
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) && owner.Stats.WarpGates > 0 {
		owner.Stats.WarpGates--
	}
	return nil
}

func (m *Mirror) onStarCarrierBuilt(payload json.RawMessage) error {
	var p events.StarCarrierBuilt
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.Carrier.OrbitingStarID)
	if err != nil {
		return err
	}
	star.Garrison = p.StarGarrison
	if m.game.Carrier(p.Carrier.ID) == nil {
		carrier := p.Carrier
		m.game.AddCarrier(&carrier)
	}
	if owner := m.game.Player(p.Carrier.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.TotalCarriers++
	}
	return nil
}

func (m *Mirror) onStarCarrierShipTransferred(payload json.RawMessage) error {
	var p events.StarCarrierShipTransferred
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	carrier, err := m.carrier(p.CarrierID)
	if err != nil {
		return err
	}
	star.Garrison = p.StarShips
	carrier.Ships = p.CarrierShips
	return nil
}

func (m *Mirror) onStarAbandoned(payload json.RawMessage) error {
	var p events.StarAbandoned
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.TotalStars--
	}
	star.OwnedByPlayerID = ""
	star.Garrison = 0
	for _, c := range m.game.CarriersOrbiting(star.ID) {
		m.game.RemoveCarrier(c.ID)
	}
	return nil
}

func (m *Mirror) onPlayerDebtSettled(payload json.RawMessage) error {
	var p events.PlayerDebtSettled
	if err := decode(payload, &p); err != nil {
		return err
	}
	creditor, err := m.player(p.CreditorPlayerID)
	if err != nil {
		return err
	}
	debtor, err := m.player(p.DebtorPlayerID)
	if err != nil {
		return err
	}
	switch p.Currency {
	case gametypes.SpecialistCurrencyCredits:
		creditor.Credits += p.Amount
	case gametypes.SpecialistCurrencyCreditsSpecialists:
		creditor.CreditsSpecialists += p.Amount
	default:
		return desync("unknown currency %s", p.Currency)
	}
	if !m.game.IsTutorial() {
		debtor.Stats.CreditsSent += p.Amount
		creditor.Stats.CreditsReceived += p.Amount
	}
	return nil
}

func (m *Mirror) onStarSpecialistHired(payload json.RawMessage) error {
	var p events.StarSpecialistHired
	if err := decode(payload, &p); err != nil {
		return err
	}
	star, err := m.star(p.StarID)
	if err != nil {
		return err
	}
	star.SpecialistID = p.Specialist.ID
	star.Manufacturing = p.Manufacturing
	if owner := m.game.Player(star.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.SpecialistsHired++
	}
	return nil
}

func (m *Mirror) onCarrierSpecialistHired(payload json.RawMessage) error {
	var p events.CarrierSpecialistHired
	if err := decode(payload, &p); err != nil {
		return err
	}
	carrier, err := m.carrier(p.CarrierID)
	if err != nil {
		return err
	}
	carrier.SpecialistID = p.Specialist.ID
	carrier.Waypoints = p.Waypoints
	if owner := m.game.Player(carrier.OwnedByPlayerID); owner != nil && m.statsCount(owner) {
		owner.Stats.SpecialistsHired++
	}
	return nil
}

func (m *Mirror) onCarrierWaypointsSaved(payload json.RawMessage) error {
	var p events.CarrierWaypointsSaved
	if err := decode(payload, &p); err != nil {
		return err
	}
	carrier, err := m.carrier(p.CarrierID)
	if err != nil {
		return err
	}
	carrier.Waypoints = p.Waypoints
	return nil
}

func (m *Mirror) onCarrierWaypointsCulled(payload json.RawMessage) error {
	var p events.CarrierWaypointsCulled
	if err := decode(payload, &p); err != nil {
		return err
	}
	carrier, err := m.carrier(p.CarrierID)
	if err != nil {
		return err
	}
	carrier.Waypoints = p.Waypoints
	return nil
}
