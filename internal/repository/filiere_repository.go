package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduplatforme/exam-backend/internal/model"
)

// FiliereRepository reads the filière catalog.
type FiliereRepository struct {
	pool *pgxpool.Pool
}

// NewFiliereRepository creates a new FiliereRepository.
func NewFiliereRepository(pool *pgxpool.Pool) *FiliereRepository {
	return &FiliereRepository{pool: pool}
}

// GetByID retrieves a filière by UUID. Returns pgx.ErrNoRows when absent.
func (r *FiliereRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Filiere, error) {
	f := &model.Filiere{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code, description, is_active FROM filieres WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Code, &f.Description, &f.IsActive)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetByCode retrieves a filière by its unique code.
func (r *FiliereRepository) GetByCode(ctx context.Context, code string) (*model.Filiere, error) {
	f := &model.Filiere{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code, description, is_active FROM filieres WHERE code = $1`, code,
	).Scan(&f.ID, &f.Name, &f.Code, &f.Description, &f.IsActive)
	if err != nil {
		return nil, err
	}
	return f, nil
}
