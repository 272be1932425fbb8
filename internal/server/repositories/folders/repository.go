package folders

import (
	"context"

	"github.com/dmitrijs2005/suitesync/internal/server/models"
)

type Repository interface {
	// ChildByName finds the folder named name directly under parentID.
	// Returns common.ErrNotFound when no such child exists.
	ChildByName(ctx context.Context, parentID int64, name string) (*models.Folder, error)

	// Create appends a new folder under parentID. Existing nodes are never
	// renamed or moved.
	Create(ctx context.Context, parentID int64, name string) (*models.Folder, error)

	// ByID fetches a folder by id.
	ByID(ctx context.Context, id int64) (*models.Folder, error)
}
