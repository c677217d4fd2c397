package userrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/aqi-advisor/internal/domain/auth"
)

const userColumns = `id, email, name, password_hash, city, age, gender, health_conditions, telegram_chat_id, created_at`

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new user row.
func (r *PostgresRepository) Create(ctx context.Context, user auth.User) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, city)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.Email, user.Name, user.PasswordHash, user.City)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.User{}, auth.ErrEmailExists
		}
		return auth.User{}, err
	}
	return created, nil
}

// GetByEmail fetches a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

// UpdateProfile overwrites the editable profile columns.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, user auth.User) (auth.User, error) {
	conditions := user.HealthConditions
	if conditions == nil {
		conditions = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2, city = $3, age = $4, gender = $5, health_conditions = $6, telegram_chat_id = $7
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Name, user.City, user.Age, user.Gender, conditions, user.TelegramChatID)
	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	return updated, err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (auth.User, bool, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return auth.User{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return auth.User{}, false, rows.Err()
	}
	user, err := scanUser(rows)
	if err != nil {
		return auth.User{}, false, err
	}
	return user, true, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var (
		user    auth.User
		created time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.City,
		&user.Age,
		&user.Gender,
		&user.HealthConditions,
		&user.TelegramChatID,
		&created,
	); err != nil {
		return auth.User{}, err
	}
	user.CreatedAt = created.UTC()
	return user, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
