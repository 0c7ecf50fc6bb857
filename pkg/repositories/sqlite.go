package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
)

// SQLiteRepository is the local/dev implementation of GameRepository.
// It shares SQL semantics with the Postgres implementation.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// A single writer keeps sqlite's locking model out of the picture.
	db.SetMaxOpenConns(1)

	for _, q := range sqliteSchema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return nil, fmt.Errorf("failed to ensure schema: %v", err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		settings TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		ord INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		alias TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		credits INTEGER NOT NULL,
		credits_specialists INTEGER NOT NULL,
		defeated INTEGER NOT NULL DEFAULT 0,
		afk INTEGER NOT NULL DEFAULT 0,
		ready INTEGER NOT NULL DEFAULT 0,
		is_empty_slot INTEGER NOT NULL DEFAULT 0,
		research TEXT NOT NULL,
		stats TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS stars (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		ord INTEGER NOT NULL,
		name TEXT NOT NULL,
		owned_by_player_id TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL,
		y REAL NOT NULL,
		natural_resources REAL NOT NULL,
		economy INTEGER NOT NULL DEFAULT 0,
		industry INTEGER NOT NULL DEFAULT 0,
		science INTEGER NOT NULL DEFAULT 0,
		manufacturing REAL NOT NULL DEFAULT 0,
		garrison INTEGER NOT NULL DEFAULT 0,
		specialist_id INTEGER NOT NULL DEFAULT 0,
		warp_gate INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS carriers (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		ord INTEGER NOT NULL,
		name TEXT NOT NULL,
		owned_by_player_id TEXT NOT NULL,
		orbiting_star_id TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL,
		y REAL NOT NULL,
		ships INTEGER NOT NULL DEFAULT 0,
		specialist_id INTEGER NOT NULL DEFAULT 0,
		waypoints TEXT NOT NULL DEFAULT '[]'
	);`,
	`CREATE TABLE IF NOT EXISTS achievements (
		user_id TEXT PRIMARY KEY,
		specialists_hired INTEGER NOT NULL DEFAULT 0,
		economy_built INTEGER NOT NULL DEFAULT 0,
		industry_built INTEGER NOT NULL DEFAULT 0,
		science_built INTEGER NOT NULL DEFAULT 0,
		warp_gates_built INTEGER NOT NULL DEFAULT 0,
		carriers_built INTEGER NOT NULL DEFAULT 0,
		credits_sent INTEGER NOT NULL DEFAULT 0,
		credits_received INTEGER NOT NULL DEFAULT 0
	);`,
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) FindGameByID(ctx context.Context, gameID string) (*gametypes.Game, error) {
	game := &gametypes.Game{ID: gameID}

	var settings []byte
	if err := r.db.QueryRowContext(ctx, `SELECT settings FROM games WHERE id = ?`, gameID).Scan(&settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}
	if err := json.Unmarshal(settings, &game.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game settings: %v", err)
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, alias, avatar, credits, credits_specialists, defeated, afk, ready, is_empty_slot, research, stats
	FROM players WHERE game_id = ? ORDER BY ord`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &gametypes.Player{}
		var research, stats []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.Alias, &p.Avatar, &p.Credits, &p.CreditsSpecialists,
			&p.Defeated, &p.AFK, &p.Ready, &p.IsEmptySlot, &research, &stats); err != nil {
			return nil, fmt.Errorf("failed to scan player: %v", err)
		}
		if err := json.Unmarshal(research, &p.Research); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player research: %v", err)
		}
		if err := json.Unmarshal(stats, &p.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player stats: %v", err)
		}
		game.Players = append(game.Players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %v", err)
	}

	rows, err = r.db.QueryContext(ctx, `
	SELECT id, name, owned_by_player_id, x, y, natural_resources, economy, industry, science, manufacturing, garrison, specialist_id, warp_gate
	FROM stars WHERE game_id = ? ORDER BY ord`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stars: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		s := &gametypes.Star{}
		if err := rows.Scan(&s.ID, &s.Name, &s.OwnedByPlayerID, &s.Position.X, &s.Position.Y, &s.NaturalResources,
			&s.Infrastructure.Economy, &s.Infrastructure.Industry, &s.Infrastructure.Science,
			&s.Manufacturing, &s.Garrison, &s.SpecialistID, &s.WarpGate); err != nil {
			return nil, fmt.Errorf("failed to scan star: %v", err)
		}
		game.Galaxy.Stars = append(game.Galaxy.Stars, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stars: %v", err)
	}

	rows, err = r.db.QueryContext(ctx, `
	SELECT id, name, owned_by_player_id, orbiting_star_id, x, y, ships, specialist_id, waypoints
	FROM carriers WHERE game_id = ? ORDER BY ord`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query carriers: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		c := &gametypes.Carrier{}
		var waypoints []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnedByPlayerID, &c.OrbitingStarID, &c.Position.X, &c.Position.Y,
			&c.Ships, &c.SpecialistID, &waypoints); err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %v", err)
		}
		if err := json.Unmarshal(waypoints, &c.Waypoints); err != nil {
			return nil, fmt.Errorf("failed to unmarshal carrier waypoints: %v", err)
		}
		game.Galaxy.Carriers = append(game.Galaxy.Carriers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate carriers: %v", err)
	}

	return game, nil
}

func (r *SQLiteRepository) SaveGame(ctx context.Context, game *gametypes.Game) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	settings, err := json.Marshal(game.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal game settings: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO games (id, settings) VALUES (?, ?)`, game.ID, settings); err != nil {
		return fmt.Errorf("failed to upsert game: %v", err)
	}

	for _, table := range []string{"carriers", "stars", "players"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE game_id = ?`, table), game.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %v", table, err)
		}
	}

	for i, p := range game.Players {
		research, err := json.Marshal(p.Research)
		if err != nil {
			return fmt.Errorf("failed to marshal player research: %v", err)
		}
		stats, err := json.Marshal(p.Stats)
		if err != nil {
			return fmt.Errorf("failed to marshal player stats: %v", err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO players (id, game_id, ord, user_id, alias, avatar, credits, credits_specialists, defeated, afk, ready, is_empty_slot, research, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, game.ID, i, p.UserID, p.Alias, p.Avatar, p.Credits, p.CreditsSpecialists,
			p.Defeated, p.AFK, p.Ready, p.IsEmptySlot, research, stats); err != nil {
			return fmt.Errorf("failed to insert player: %v", err)
		}
	}

	for i, s := range game.Galaxy.Stars {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO stars (id, game_id, ord, name, owned_by_player_id, x, y, natural_resources, economy, industry, science, manufacturing, garrison, specialist_id, warp_gate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, game.ID, i, s.Name, s.OwnedByPlayerID, s.Position.X, s.Position.Y, s.NaturalResources,
			s.Infrastructure.Economy, s.Infrastructure.Industry, s.Infrastructure.Science,
			s.Manufacturing, s.Garrison, s.SpecialistID, s.WarpGate); err != nil {
			return fmt.Errorf("failed to insert star: %v", err)
		}
	}

	for i, c := range game.Galaxy.Carriers {
		waypoints, err := json.Marshal(c.Waypoints)
		if err != nil {
			return fmt.Errorf("failed to marshal carrier waypoints: %v", err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO carriers (id, game_id, ord, name, owned_by_player_id, orbiting_star_id, x, y, ships, specialist_id, waypoints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, game.ID, i, c.Name, c.OwnedByPlayerID, c.OrbitingStarID, c.Position.X, c.Position.Y,
			c.Ships, c.SpecialistID, waypoints); err != nil {
			return fmt.Errorf("failed to insert carrier: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) AtomicBatch(ctx context.Context, gameID string, ops []Op) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		if err := r.applyOp(ctx, tx, gameID, op); err != nil {
			return mapSQLiteConflict(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapSQLiteConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func mapSQLiteConflict(err error) error {
	if err != nil && strings.Contains(err.Error(), "database is locked") {
		return &ErrConflict{}
	}
	return err
}

func (r *SQLiteRepository) applyOp(ctx context.Context, tx *sql.Tx, gameID string, op Op) error {
	switch o := op.(type) {
	case SetPlayerCredits:
		_, err := tx.ExecContext(ctx, `UPDATE players SET credits = ? WHERE id = ? AND game_id = ?`, o.Credits, o.PlayerID, gameID)
		return err
	case SetPlayerCreditsSpecialists:
		_, err := tx.ExecContext(ctx, `UPDATE players SET credits_specialists = ? WHERE id = ? AND game_id = ?`, o.CreditsSpecialists, o.PlayerID, gameID)
		return err
	case SetPlayerReady:
		_, err := tx.ExecContext(ctx, `UPDATE players SET ready = ? WHERE id = ? AND game_id = ?`, o.Ready, o.PlayerID, gameID)
		return err
	case SetPlayerDefeated:
		_, err := tx.ExecContext(ctx, `UPDATE players SET defeated = ? WHERE id = ? AND game_id = ?`, o.Defeated, o.PlayerID, gameID)
		return err
	case SetPlayerSlot:
		_, err := tx.ExecContext(ctx, `UPDATE players SET user_id = ?, alias = ?, avatar = ?, is_empty_slot = ? WHERE id = ? AND game_id = ?`,
			o.UserID, o.Alias, o.Avatar, o.IsEmptySlot, o.PlayerID, gameID)
		return err
	case SetStarSpecialist:
		_, err := tx.ExecContext(ctx, `UPDATE stars SET specialist_id = ? WHERE id = ? AND game_id = ?`, o.SpecialistID, o.StarID, gameID)
		return err
	case SetStarInfrastructure:
		var column string
		switch o.Type {
		case gametypes.InfrastructureTypeEconomy:
			column = "economy"
		case gametypes.InfrastructureTypeIndustry:
			column = "industry"
		case gametypes.InfrastructureTypeScience:
			column = "science"
		default:
			return fmt.Errorf("unsupported infrastructure type: %s", o.Type)
		}
		q := fmt.Sprintf(`UPDATE stars SET %s = ?, manufacturing = ? WHERE id = ? AND game_id = ?`, column)
		_, err := tx.ExecContext(ctx, q, o.Level, o.Manufacturing, o.StarID, gameID)
		return err
	case SetStarWarpGate:
		_, err := tx.ExecContext(ctx, `UPDATE stars SET warp_gate = ? WHERE id = ? AND game_id = ?`, o.WarpGate, o.StarID, gameID)
		return err
	case SetStarGarrison:
		_, err := tx.ExecContext(ctx, `UPDATE stars SET garrison = ? WHERE id = ? AND game_id = ?`, o.Garrison, o.StarID, gameID)
		return err
	case SetStarOwner:
		_, err := tx.ExecContext(ctx, `UPDATE stars SET owned_by_player_id = ? WHERE id = ? AND game_id = ?`, o.OwnerPlayerID, o.StarID, gameID)
		return err
	case SetCarrierSpecialist:
		_, err := tx.ExecContext(ctx, `UPDATE carriers SET specialist_id = ? WHERE id = ? AND game_id = ?`, o.SpecialistID, o.CarrierID, gameID)
		return err
	case SetCarrierShips:
		_, err := tx.ExecContext(ctx, `UPDATE carriers SET ships = ? WHERE id = ? AND game_id = ?`, o.Ships, o.CarrierID, gameID)
		return err
	case SetCarrierWaypoints:
		waypoints, err := json.Marshal(o.Waypoints)
		if err != nil {
			return fmt.Errorf("failed to marshal waypoints: %v", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE carriers SET waypoints = ? WHERE id = ? AND game_id = ?`, waypoints, o.CarrierID, gameID)
		return err
	case InsertCarrier:
		c := o.Carrier
		waypoints, err := json.Marshal(c.Waypoints)
		if err != nil {
			return fmt.Errorf("failed to marshal waypoints: %v", err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO carriers (id, game_id, ord, name, owned_by_player_id, orbiting_star_id, x, y, ships, specialist_id, waypoints)
		VALUES (?, ?, (SELECT COALESCE(MAX(ord), -1) + 1 FROM carriers WHERE game_id = ?), ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, gameID, gameID, c.Name, c.OwnedByPlayerID, c.OrbitingStarID, c.Position.X, c.Position.Y,
			c.Ships, c.SpecialistID, waypoints)
		return err
	case DeleteCarrier:
		_, err := tx.ExecContext(ctx, `DELETE FROM carriers WHERE id = ? AND game_id = ?`, o.CarrierID, gameID)
		return err
	default:
		return fmt.Errorf("unsupported op type: %T", op)
	}
}
