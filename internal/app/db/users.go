package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dmchat/internal/app/user"
)

const userColumns = `id, username, email, password_hash, display_name, avatar_url, online, last_seen, created_at, contacts`

// UserStore is the PostgreSQL user.Store.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a UserStore over pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.AvatarURL, &u.Online, &u.LastSeen, &u.CreatedAt, &u.Contacts,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	contacts := u.Contacts
	if contacts == nil {
		contacts = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DisplayName,
		u.AvatarURL, u.Online, u.LastSeen, u.CreatedAt, contacts,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *UserStore) List(ctx context.Context) ([]*user.User, error) {
	return s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, username`)
}

func (s *UserStore) SearchByUsername(ctx context.Context, query string) ([]*user.User, error) {
	return s.query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE username ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY created_at, username`,
		escapeLike(query),
	)
}

func (s *UserStore) SetOnline(ctx context.Context, id string, online bool, at time.Time) (*user.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		UPDATE users SET online = $2, last_seen = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, online, at,
	))
}

func (s *UserStore) query(ctx context.Context, sql string, args ...any) ([]*user.User, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE metacharacters so query matches literally.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}
