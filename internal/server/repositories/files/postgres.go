package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/dbx"
	"github.com/dmitrijs2005/suitesync/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ByFolderAndName(ctx context.Context, folderID int64, name string) (*models.File, error) {
	query := `
		SELECT id, name, folder_id, file_type, storage_key, description, size_bytes, updated_at
		FROM files WHERE folder_id=$1 AND name=$2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, folderID, name))
}

func (r *PostgresRepository) ByID(ctx context.Context, id int64) (*models.File, error) {
	query := `
		SELECT id, name, folder_id, file_type, storage_key, description, size_bytes, updated_at
		FROM files WHERE id=$1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.Name, &f.FolderID, &f.FileType, &f.StorageKey,
		&f.Description, &f.SizeBytes, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (name, folder_id, file_type, storage_key, description, size_bytes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.FolderID, file.FileType, file.StorageKey, file.Description, file.SizeBytes).
		Scan(&file.ID, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// UpdateContent overwrites content-related fields by id. The row keeps its
// identifier, so references to it elsewhere stay valid.
func (r *PostgresRepository) UpdateContent(ctx context.Context, file *models.File) error {
	query := `
		UPDATE files
		SET file_type=$2, storage_key=$3, description=$4, size_bytes=$5, updated_at=now()
		WHERE id=$1
	`
	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.FileType, file.StorageKey, file.Description, file.SizeBytes)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
