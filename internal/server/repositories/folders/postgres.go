package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/dbx"
	"github.com/dmitrijs2005/suitesync/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ChildByName(ctx context.Context, parentID int64, name string) (*models.Folder, error) {
	query := `SELECT id, name, parent_id FROM folders WHERE parent_id=$1 AND name=$2`

	f := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, parentID, name).Scan(&f.ID, &f.Name, &f.ParentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select folder: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, parentID int64, name string) (*models.Folder, error) {
	query := `INSERT INTO folders (name, parent_id) VALUES ($1, $2) RETURNING id`

	f := &models.Folder{Name: name, ParentID: parentID}
	if err := r.db.QueryRowContext(ctx, query, name, parentID).Scan(&f.ID); err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ByID(ctx context.Context, id int64) (*models.Folder, error) {
	query := `SELECT id, name, parent_id FROM folders WHERE id=$1`

	f := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.Name, &f.ParentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select folder: %w", err)
	}
	return f, nil
}
