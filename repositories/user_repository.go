package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("email already in use")
	ErrUserNicknameConflict = errors.New("nickname already in use")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type sqlUserRepository struct {
	store *store.Store
}

func NewUserRepository(s *store.Store) UserRepository {
	return &sqlUserRepository{store: s}
}

func (r *sqlUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, nickname, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)`

	id, err := r.store.InsertID(ctx, query,
		user.Email,
		user.Nickname,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		return handleUserError(err)
	}
	user.ID = id
	return nil
}

func (r *sqlUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, email, nickname, password_hash, role, created_at
		FROM users
		WHERE id = ?`
	return r.scanUser(r.store.QueryRowContext(ctx, query, id))
}

func (r *sqlUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, nickname, password_hash, role, created_at
		FROM users
		WHERE email = ?`
	return r.scanUser(r.store.QueryRowContext(ctx, query, email))
}

func (r *sqlUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// handleUserError maps unique-constraint violations to sentinel errors.
// Postgres reports constraint names through pq.Error; sqlite surfaces the
// column name in the error text.
func handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		case "users_nickname_key":
			return ErrUserNicknameConflict
		}
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, "users.email") {
			return ErrUserEmailConflict
		}
		if strings.Contains(msg, "users.nickname") {
			return ErrUserNicknameConflict
		}
	}
	return err
}
