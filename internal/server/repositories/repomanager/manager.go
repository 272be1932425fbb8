// Package repomanager binds repository implementations to database handles
// and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/suitesync/internal/dbx"
	"github.com/dmitrijs2005/suitesync/internal/server/repositories/files"
	"github.com/dmitrijs2005/suitesync/internal/server/repositories/folders"
)

// RepositoryManager hands out repositories bound to a DBTX, so services can
// run several repository calls inside one transaction via dbx.WithTx.
type RepositoryManager interface {
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
