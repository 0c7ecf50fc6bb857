package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
)

const pgSerializationFailure = "40001"

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and ensures the schema
// exists. The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	for _, q := range pgSchema {
		if _, err := conn.Exec(ctx, q); err != nil {
			return nil, fmt.Errorf("failed to ensure schema: %v", err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		settings JSONB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES games (id),
		ord INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		alias TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		credits INTEGER NOT NULL,
		credits_specialists INTEGER NOT NULL,
		defeated BOOLEAN NOT NULL DEFAULT FALSE,
		afk BOOLEAN NOT NULL DEFAULT FALSE,
		ready BOOLEAN NOT NULL DEFAULT FALSE,
		is_empty_slot BOOLEAN NOT NULL DEFAULT FALSE,
		research JSONB NOT NULL,
		stats JSONB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS stars (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES games (id),
		ord INTEGER NOT NULL,
		name TEXT NOT NULL,
		owned_by_player_id TEXT NOT NULL DEFAULT '',
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		natural_resources DOUBLE PRECISION NOT NULL,
		economy INTEGER NOT NULL DEFAULT 0,
		industry INTEGER NOT NULL DEFAULT 0,
		science INTEGER NOT NULL DEFAULT 0,
		manufacturing DOUBLE PRECISION NOT NULL DEFAULT 0,
		garrison INTEGER NOT NULL DEFAULT 0,
		specialist_id INTEGER NOT NULL DEFAULT 0,
		warp_gate BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE TABLE IF NOT EXISTS carriers (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES games (id),
		ord INTEGER NOT NULL,
		name TEXT NOT NULL,
		owned_by_player_id TEXT NOT NULL,
		orbiting_star_id TEXT NOT NULL DEFAULT '',
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		ships INTEGER NOT NULL DEFAULT 0,
		specialist_id INTEGER NOT NULL DEFAULT 0,
		waypoints JSONB NOT NULL DEFAULT '[]'
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

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) FindGameByID(ctx context.Context, gameID string) (*gametypes.Game, error) {
	game := &gametypes.Game{ID: gameID}

	var settings []byte
	if err := r.conn.QueryRow(ctx, `SELECT settings FROM games WHERE id = $1`, gameID).Scan(&settings); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}
	if err := json.Unmarshal(settings, &game.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game settings: %v", err)
	}

	rows, err := r.conn.Query(ctx, `
	SELECT id, user_id, alias, avatar, credits, credits_specialists, defeated, afk, ready, is_empty_slot, research, stats
	FROM players WHERE game_id = $1 ORDER BY ord`, gameID)
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
	rows.Close()

	rows, err = r.conn.Query(ctx, `
	SELECT id, name, owned_by_player_id, x, y, natural_resources, economy, industry, science, manufacturing, garrison, specialist_id, warp_gate
	FROM stars WHERE game_id = $1 ORDER BY ord`, gameID)
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
	rows.Close()

	rows, err = r.conn.Query(ctx, `
	SELECT id, name, owned_by_player_id, orbiting_star_id, x, y, ships, specialist_id, waypoints
	FROM carriers WHERE game_id = $1 ORDER BY ord`, gameID)
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

	return game, nil
}

func (r *PostgresRepository) SaveGame(ctx context.Context, game *gametypes.Game) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	settings, err := json.Marshal(game.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal game settings: %v", err)
	}
	if _, err := tx.Exec(ctx, `
	INSERT INTO games (id, settings) VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET settings = $2`, game.ID, settings); err != nil {
		return fmt.Errorf("failed to upsert game: %v", err)
	}

	for _, table := range []string{"carriers", "stars", "players"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE game_id = $1`, table), game.ID); err != nil {
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
		if _, err := tx.Exec(ctx, `
		INSERT INTO players (id, game_id, ord, user_id, alias, avatar, credits, credits_specialists, defeated, afk, ready, is_empty_slot, research, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			p.ID, game.ID, i, p.UserID, p.Alias, p.Avatar, p.Credits, p.CreditsSpecialists,
			p.Defeated, p.AFK, p.Ready, p.IsEmptySlot, research, stats); err != nil {
			return fmt.Errorf("failed to insert player: %v", err)
		}
	}

	for i, s := range game.Galaxy.Stars {
		if _, err := tx.Exec(ctx, `
		INSERT INTO stars (id, game_id, ord, name, owned_by_player_id, x, y, natural_resources, economy, industry, science, manufacturing, garrison, specialist_id, warp_gate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
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
		if _, err := tx.Exec(ctx, `
		INSERT INTO carriers (id, game_id, ord, name, owned_by_player_id, orbiting_star_id, x, y, ships, specialist_id, waypoints)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID, game.ID, i, c.Name, c.OwnedByPlayerID, c.OrbitingStarID, c.Position.X, c.Position.Y,
			c.Ships, c.SpecialistID, waypoints); err != nil {
			return fmt.Errorf("failed to insert carrier: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) AtomicBatch(ctx context.Context, gameID string, ops []Op) error {
	tx, err := r.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, op := range ops {
		if err := r.applyOp(ctx, tx, gameID, op); err != nil {
			return mapConflict(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure {
		return &ErrConflict{}
	}
	return err
}

func (r *PostgresRepository) applyOp(ctx context.Context, tx pgx.Tx, gameID string, op Op) error {
	switch o := op.(type) {
	case SetPlayerCredits:
		_, err := tx.Exec(ctx, `UPDATE players SET credits = $1 WHERE id = $2 AND game_id = $3`, o.Credits, o.PlayerID, gameID)
		return err
	case SetPlayerCreditsSpecialists:
		_, err := tx.Exec(ctx, `UPDATE players SET credits_specialists = $1 WHERE id = $2 AND game_id = $3`, o.CreditsSpecialists, o.PlayerID, gameID)
		return err
	case SetPlayerReady:
		_, err := tx.Exec(ctx, `UPDATE players SET ready = $1 WHERE id = $2 AND game_id = $3`, o.Ready, o.PlayerID, gameID)
		return err
	case SetPlayerDefeated:
		_, err := tx.Exec(ctx, `UPDATE players SET defeated = $1 WHERE id = $2 AND game_id = $3`, o.Defeated, o.PlayerID, gameID)
		return err
	case SetPlayerSlot:
		_, err := tx.Exec(ctx, `UPDATE players SET user_id = $1, alias = $2, avatar = $3, is_empty_slot = $4 WHERE id = $5 AND game_id = $6`,
			o.UserID, o.Alias, o.Avatar, o.IsEmptySlot, o.PlayerID, gameID)
		return err
	case SetStarSpecialist:
		_, err := tx.Exec(ctx, `UPDATE stars SET specialist_id = $1 WHERE id = $2 AND game_id = $3`, o.SpecialistID, o.StarID, gameID)
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
		q := fmt.Sprintf(`UPDATE stars SET %s = $1, manufacturing = $2 WHERE id = $3 AND game_id = $4`, column)
		_, err := tx.Exec(ctx, q, o.Level, o.Manufacturing, o.StarID, gameID)
		return err
	case SetStarWarpGate:
		_, err := tx.Exec(ctx, `UPDATE stars SET warp_gate = $1 WHERE id = $2 AND game_id = $3`, o.WarpGate, o.StarID, gameID)
		return err
	case SetStarGarrison:
		_, err := tx.Exec(ctx, `UPDATE stars SET garrison = $1 WHERE id = $2 AND game_id = $3`, o.Garrison, o.StarID, gameID)
		return err
	case SetStarOwner:
		_, err := tx.Exec(ctx, `UPDATE stars SET owned_by_player_id = $1 WHERE id = $2 AND game_id = $3`, o.OwnerPlayerID, o.StarID, gameID)
		return err
	case SetCarrierSpecialist:
		_, err := tx.Exec(ctx, `UPDATE carriers SET specialist_id = $1 WHERE id = $2 AND game_id = $3`, o.SpecialistID, o.CarrierID, gameID)
		return err
	case SetCarrierShips:
		_, err := tx.Exec(ctx, `UPDATE carriers SET ships = $1 WHERE id = $2 AND game_id = $3`, o.Ships, o.CarrierID, gameID)
		return err
	case SetCarrierWaypoints:
		waypoints, err := json.Marshal(o.Waypoints)
		if err != nil {
			return fmt.Errorf("failed to marshal waypoints: %v", err)
		}
		_, err = tx.Exec(ctx, `UPDATE carriers SET waypoints = $1 WHERE id = $2 AND game_id = $3`, waypoints, o.CarrierID, gameID)
		return err
	case InsertCarrier:
		c := o.Carrier
		waypoints, err := json.Marshal(c.Waypoints)
		if err != nil {
			return fmt.Errorf("failed to marshal waypoints: %v", err)
		}
		_, err = tx.Exec(ctx, `
		INSERT INTO carriers (id, game_id, ord, name, owned_by_player_id, orbiting_star_id, x, y, ships, specialist_id, waypoints)
		VALUES ($1, $2, (SELECT COALESCE(MAX(ord), -1) + 1 FROM carriers WHERE game_id = $2), $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, gameID, c.Name, c.OwnedByPlayerID, c.OrbitingStarID, c.Position.X, c.Position.Y,
			c.Ships, c.SpecialistID, waypoints)
		return err
	case DeleteCarrier:
		_, err := tx.Exec(ctx, `DELETE FROM carriers WHERE id = $1 AND game_id = $2`, o.CarrierID, gameID)
		return err
	default:
		return fmt.Errorf("unsupported op type: %T", op)
	}
}
