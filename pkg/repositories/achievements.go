package repositories

import (
	"context"
	"fmt"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
)

// Achievements accounting lives alongside the game tables so both
// repository implementations satisfy AchievementsRepository.

func achievementColumn(t gametypes.InfrastructureType) (string, error) {
	switch t {
	case gametypes.InfrastructureTypeEconomy:
		return "economy_built", nil
	case gametypes.InfrastructureTypeIndustry:
		return "industry_built", nil
	case gametypes.InfrastructureTypeScience:
		return "science_built", nil
	default:
		return "", fmt.Errorf("unsupported infrastructure type: %s", t)
	}
}

func (r *PostgresRepository) IncrementSpecialistsHired(ctx context.Context, userID string) error {
	return r.incrementAchievement(ctx, userID, "specialists_hired", 1)
}

func (r *PostgresRepository) IncrementInfrastructureBuilt(ctx context.Context, userID string, infrastructureType gametypes.InfrastructureType, amount int) error {
	column, err := achievementColumn(infrastructureType)
	if err != nil {
		return err
	}
	return r.incrementAchievement(ctx, userID, column, amount)
}

func (r *PostgresRepository) IncrementWarpGatesBuilt(ctx context.Context, userID string) error {
	return r.incrementAchievement(ctx, userID, "warp_gates_built", 1)
}

func (r *PostgresRepository) IncrementCarriersBuilt(ctx context.Context, userID string) error {
	return r.incrementAchievement(ctx, userID, "carriers_built", 1)
}

func (r *PostgresRepository) IncrementCreditsTraded(ctx context.Context, fromUserID, toUserID string, amount int) error {
	if err := r.incrementAchievement(ctx, fromUserID, "credits_sent", amount); err != nil {
		return err
	}
	return r.incrementAchievement(ctx, toUserID, "credits_received", amount)
}

func (r *PostgresRepository) incrementAchievement(ctx context.Context, userID, column string, amount int) error {
	q := fmt.Sprintf(`
	INSERT INTO achievements (user_id, %s) VALUES ($1, $2)
	ON CONFLICT (user_id) DO UPDATE SET %s = achievements.%s + $2`, column, column, column)
	if _, err := r.conn.Exec(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("failed to increment %s: %v", column, err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementSpecialistsHired(ctx context.Context, userID string) error {
	return r.incrementAchievement(ctx, userID, "specialists_hired", 1)
}

func (r *SQLiteRepository) IncrementInfrastructureBuilt(ctx context.Context, userID string, infrastructureType gametypes.InfrastructureType, amount int) error {
	column, err := achievementColumn(infrastructureType)
	if err != nil {
		return err
	}
	return r.incrementAchievement(ctx, userID, column, amount)
}

func (r *SQLiteRepository) IncrementWarpGatesBuilt(ctx context.Context, userID string) error {
	return r.incrementAchievement(ctx, userID, "warp_gates_built", 1)
}

func (r *SQLiteRepository) IncrementCarriersBuilt(ctx context.Context, userID string) error {
	return r.incrementAchievement(ctx, userID, "carriers_built", 1)
}

func (r *SQLiteRepository) IncrementCreditsTraded(ctx context.Context, fromUserID, toUserID string, amount int) error {
	if err := r.incrementAchievement(ctx, fromUserID, "credits_sent", amount); err != nil {
		return err
	}
	return r.incrementAchievement(ctx, toUserID, "credits_received", amount)
}

func (r *SQLiteRepository) incrementAchievement(ctx context.Context, userID, column string, amount int) error {
	q := fmt.Sprintf(`
	INSERT INTO achievements (user_id, %s) VALUES (?, ?)
	ON CONFLICT (user_id) DO UPDATE SET %s = %s + excluded.%s`, column, column, column, column)
	if _, err := r.db.ExecContext(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("failed to increment %s: %v", column, err)
	}
	return nil
}
