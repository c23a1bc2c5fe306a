package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const usersTable = "users"

type UserRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepo) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	const op = "repository.user_repository.SaveUser"

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query, args, err := r.sb.Insert(usersTable).
		Columns("id", "name", "email", "pass_hash", "created_at").
		Values(user.ID, user.Name, user.Email, user.PassHash, time.Now().UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *UserRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "repository.user_repository.UserByEmail"

	query, args, err := r.sb.Select("id", "name", "email", "pass_hash", "created_at").
		From(usersTable).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.scanUser(ctx, op, query, args)
}

func (r *UserRepo) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const op = "repository.user_repository.UserByID"

	query, args, err := r.sb.Select("id", "name", "email", "pass_hash", "created_at").
		From(usersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.scanUser(ctx, op, query, args)
}

func (r *UserRepo) scanUser(ctx context.Context, op, query string, args []any) (models.User, error) {
	var user models.User

	err := r.db.QueryRow(ctx, query, args...).
		Scan(&user.ID, &user.Name, &user.Email, &user.PassHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
