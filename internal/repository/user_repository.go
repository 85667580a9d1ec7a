package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

// UserRepository reads the account rows synced from the identity provider.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ListTeachers returns every teacher account.
func (r *UserRepository) ListTeachers(ctx context.Context) ([]models.User, error) {
	const query = "SELECT id, email, name, role, created_at FROM users WHERE role = $1 ORDER BY email ASC"
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return users, nil
}

// FindByID fetches a user account by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = "SELECT id, email, name, role, created_at FROM users WHERE id = $1"
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
