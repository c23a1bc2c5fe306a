package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const documentsTable = "documents"

type DocumentRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewDocumentRepo(db *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *DocumentRepo) List(ctx context.Context, collection models.Collection) ([]models.Document, error) {
	const op = "repository.document_repository.List"

	query, args, err := r.sb.Select("id", "data", "created_at", "updated_at").
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r.queryDocuments(ctx, op, collection, query, args)
}

// ListWhere applies a single equality filter via jsonb containment, the only
// filter shape the gateway supports.
func (r *DocumentRepo) ListWhere(ctx context.Context, collection models.Collection, field string, value any) ([]models.Document, error) {
	const op = "repository.document_repository.ListWhere"

	match, err := json.Marshal(models.Fields{field: value})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Select("id", "data", "created_at", "updated_at").
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		Where(sq.Expr("data @> ?", match)).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r.queryDocuments(ctx, op, collection, query, args)
}

func (r *DocumentRepo) Get(ctx context.Context, collection models.Collection, id string) (models.Document, error) {
	const op = "repository.document_repository.Get"

	query, args, err := r.sb.Select("id", "data", "created_at", "updated_at").
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	doc := models.Document{Collection: collection}
	var raw []byte

	err = r.db.QueryRow(ctx, query, args...).Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, fmt.Errorf("%s: %w", op, storage.ErrDocumentNotFound)
		}
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// Upsert merge-writes: on conflict the stored payload is extended with the
// incoming fields (`data || excluded.data`), never replaced, so a partial
// update cannot clear fields it does not carry.
func (r *DocumentRepo) Upsert(ctx context.Context, collection models.Collection, id string, fields models.Fields) (string, error) {
	const op = "repository.document_repository.Upsert"

	if id == "" {
		id = uuid.New().String()
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Insert(documentsTable).
		Columns("collection", "id", "data").
		Values(collection, id, payload).
		Suffix(`ON CONFLICT (collection, id) DO UPDATE
			SET data = documents.data || EXCLUDED.data,
			    updated_at = now()
			RETURNING id`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var savedID string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&savedID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return savedID, nil
}

// Delete removes the record; deleting an absent id affects zero rows and is
// treated as success.
func (r *DocumentRepo) Delete(ctx context.Context, collection models.Collection, id string) error {
	const op = "repository.document_repository.Delete"

	query, args, err := r.sb.Delete(documentsTable).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DocumentRepo) queryDocuments(ctx context.Context, op string, collection models.Collection, query string, args []any) ([]models.Document, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc := models.Document{Collection: collection}
		var raw []byte

		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return docs, nil
}
