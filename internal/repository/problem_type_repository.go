package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-router/internal/domain"
)

// ProblemTypeRepository provides read access to the problem type
// catalog. The catalog is static reference data seeded by migration.
type ProblemTypeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ProblemType, error)
	List(ctx context.Context) ([]domain.ProblemType, error)
}

type problemTypeRepository struct {
	pool *pgxpool.Pool
}

// NewProblemTypeRepository instantiates the repository.
func NewProblemTypeRepository(pool *pgxpool.Pool) ProblemTypeRepository {
	return &problemTypeRepository{pool: pool}
}

func (r *problemTypeRepository) GetByID(ctx context.Context, id string) (*domain.ProblemType, error) {
	const query = `SELECT id, name, description FROM problem_types WHERE id=$1`
	var pt domain.ProblemType
	if err := r.pool.QueryRow(ctx, query, id).Scan(&pt.ID, &pt.Name, &pt.Description); err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *problemTypeRepository) List(ctx context.Context) ([]domain.ProblemType, error) {
	const query = `SELECT id, name, description FROM problem_types ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProblemType
	for rows.Next() {
		var pt domain.ProblemType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Description); err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}
