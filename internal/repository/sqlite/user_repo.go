package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"carpark_manager/internal/domain"
	"carpark_manager/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		user.Username, user.Password, user.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: username %q", repository.ErrDuplicateEntry, user.Username)
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	return r.FindByUsername(ctx, user.Username)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password_hash, role, created_at FROM users WHERE username = ?`, username).
		Scan(&user.Username, &user.Password, &user.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UserRepository.FindByUsername: %w", err)
	}
	user.CreatedAt = parseDBTime(createdAt)
	return user, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username, role, created_at FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			u         domain.User
			createdAt string
		)
		if err := rows.Scan(&u.Username, &u.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("UserRepository.FindAll: scan: %w", err)
		}
		u.CreatedAt = parseDBTime(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// parseDBTime reads the CURRENT_TIMESTAMP format sqlite writes; a zero
// time is returned for anything unexpected.
func parseDBTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
