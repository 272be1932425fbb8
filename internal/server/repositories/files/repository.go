package files

import (
	"context"

	"github.com/dmitrijs2005/suitesync/internal/server/models"
)

type Repository interface {
	// ByFolderAndName finds a file by its natural key. Returns
	// common.ErrNotFound when absent.
	ByFolderAndName(ctx context.Context, folderID int64, name string) (*models.File, error)

	// ByID fetches a file by its stable identifier.
	ByID(ctx context.Context, id int64) (*models.File, error)

	// Create inserts a new file record and assigns its identifier.
	Create(ctx context.Context, file *models.File) error

	// UpdateContent overwrites the mutable fields of an existing record.
	// The identifier never changes.
	UpdateContent(ctx context.Context, file *models.File) error

	// DeleteByID removes a file record. Returns common.ErrNotFound when no
	// row was deleted.
	DeleteByID(ctx context.Context, id int64) error
}
