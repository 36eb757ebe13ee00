package devbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/prakritea/artisan-studio/internal/errors"
)

// PostgresUserStore keeps users in the users table created by internal/migrate.
type PostgresUserStore struct {
	DB *sql.DB
}

var _ UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore wraps db.
func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{DB: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, u User) error {
	err := withPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx,
			`INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
			u.ID, u.Username, u.PasswordHash, u.CreatedAt)
		return err
	})
	if err == nil {
		return nil
	}
	if mapped := apperrors.MapDBError(err); apperrors.IsConflict(mapped) {
		return ErrUserExists
	}
	return fmt.Errorf("create user: %w", err)
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := withPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT id, username, password_hash, created_at, last_login_at FROM users WHERE username = $1`,
			username,
		).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	})
	if err != nil {
		if apperrors.IsNotFound(apperrors.MapDBError(err)) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// withPgxConn acquires a *pgx.Conn via the stdlib bridge and executes fn with it.
func withPgxConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		return fn(std.Conn())
	})
}
