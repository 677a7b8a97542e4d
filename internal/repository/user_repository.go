package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduplatforme/exam-backend/internal/model"
)

// UserRepository reads the user directory.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by UUID. Returns pgx.ErrNoRows when absent.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, first_name, last_name, filiere_id, is_active
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.FiliereID, &u.IsActive)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a user. Used by the provisioning CLI only.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, first_name, last_name, filiere_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, is_active`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.FiliereID,
	).Scan(&u.ID, &u.IsActive)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}
