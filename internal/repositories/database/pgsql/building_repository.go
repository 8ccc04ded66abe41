package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
)

type PgxBuildingRepository struct {
	pool *pgxpool.Pool
}

// newPgxBuildingRepository creates a new repository for building data.
func newPgxBuildingRepository(pool *pgxpool.Pool) portsrepo.BuildingRepositoryFacade {
	return &PgxBuildingRepository{pool: pool}
}

var _ portsrepo.BuildingRepositoryFacade = (*PgxBuildingRepository)(nil)

// SaveBuilding inserts a new building.
func (r *PgxBuildingRepository) SaveBuilding(ctx context.Context, building domain.Building) error {
	query := `
		INSERT INTO buildings (building_id, name, address, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		building.BuildingID,
		building.Name,
		building.Address,
		building.CreatedAt,
		building.CreatedBy,
		building.LastUpdatedAt,
		building.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: building %s already exists", apperrors.ErrDuplicate, building.BuildingID)
		}
		return fmt.Errorf("failed to save building %s: %w", building.BuildingID, err)
	}
	return nil
}

// FindBuildingByID retrieves a building by its ID.
func (r *PgxBuildingRepository) FindBuildingByID(ctx context.Context, buildingID string) (*domain.Building, error) {
	query := `
		SELECT building_id, name, address, created_at, created_by, last_updated_at, last_updated_by
		FROM buildings
		WHERE building_id = $1;
	`
	var b domain.Building
	err := r.pool.QueryRow(ctx, query, buildingID).Scan(
		&b.BuildingID,
		&b.Name,
		&b.Address,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find building by ID %s: %w", buildingID, err)
	}
	return &b, nil
}

// ListBuildings retrieves all buildings ordered by name.
func (r *PgxBuildingRepository) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	query := `
		SELECT building_id, name, address, created_at, created_by, last_updated_at, last_updated_by
		FROM buildings
		ORDER BY name, building_id;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer rows.Close()

	var buildings []domain.Building
	for rows.Next() {
		var b domain.Building
		if err := rows.Scan(
			&b.BuildingID,
			&b.Name,
			&b.Address,
			&b.CreatedAt,
			&b.CreatedBy,
			&b.LastUpdatedAt,
			&b.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan building row: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building rows: %w", err)
	}
	return buildings, nil
}
