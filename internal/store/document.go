package store

import (
	"context"
	"fmt"
	"time"

	"docshare/internal/utils"
	"docshare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentTableName = "docshare.documents"

var documentColumns = utils.StructTagValues(types.Document{})

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Document(ctx context.Context, documentID int64) (*types.Document, error) {
	query, args, err := psql().
		Select(documentColumns...).
		From(documentTableName).
		Where(sq.Eq{"id": documentID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document query: %w", err)
	}

	var doc types.Document
	err = pgxscan.Get(ctx, r.pool, &doc, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	return &doc, nil
}

// DocumentsByOwner lists an owner's document metadata in creation order.
// Payloads are not touched; only the storage key travels with the row.
func (r *DocumentRepository) DocumentsByOwner(ctx context.Context, ownerID int64) ([]*types.Document, error) {
	query, args, err := psql().
		Select(documentColumns...).
		From(documentTableName).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate documents-by-owner query: %w", err)
	}

	docs := make([]*types.Document, 0)
	err = pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents by owner: %w", err)
	}

	return docs, nil
}

// CreateDocument inserts a metadata row. A duplicate (owner, name) pair
// trips the unique constraint and is reported as ErrNameConflict.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *types.Document) error {
	doc.UploadedAt = time.Now()

	query, args, err := psql().
		Insert(documentTableName).
		Columns("owner_id", "name", "content_type", "size_bytes", "storage_key", "uploaded_at").
		Values(doc.OwnerID, doc.Name, doc.ContentType, doc.SizeBytes, doc.StorageKey, doc.UploadedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create document query: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&doc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrNameConflict
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) RenameDocument(ctx context.Context, documentID int64, name string) error {
	query, args, err := psql().
		Update(documentTableName).
		Set("name", name).
		Where(sq.Eq{"id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate rename document query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrNameConflict
		}
		return fmt.Errorf("failed to rename document: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, documentID int64) error {
	query, args, err := psql().
		Delete(documentTableName).
		Where(sq.Eq{"id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete document query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrDocumentNotFound
	}

	return nil
}
