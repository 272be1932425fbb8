// Package services implements the cabinet's find-or-create semantics: folder
// path resolution, identity-preserving file upserts, and deletes.
package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/dbx"
	"github.com/dmitrijs2005/suitesync/internal/filetype"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
	sc "github.com/dmitrijs2005/suitesync/internal/server/config"
	"github.com/dmitrijs2005/suitesync/internal/server/models"
	"github.com/dmitrijs2005/suitesync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/suitesync/internal/server/storage"
)

// Version is reported by the connection test.
const Version = "1.2.0"

// UpsertResult describes one completed create-or-update.
type UpsertResult struct {
	FileID int64
	Action string
	Path   string
}

type CabinetService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  storage.ContentStore
	config *sc.Config
	logger logging.Logger
}

func NewCabinetService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ContentStore, config *sc.Config, logger logging.Logger) *CabinetService {
	return &CabinetService{
		db:     db,
		repos:  repos,
		store:  store,
		config: config,
		logger: logger,
	}
}

func (s *CabinetService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// splitPath breaks a logical cabinet path into folder segments and a file
// name. The path must carry a leading slash and a non-empty file name.
func splitPath(logicalPath string) ([]string, string, error) {
	if !strings.HasPrefix(logicalPath, "/") {
		return nil, "", fmt.Errorf("path must start with /: %q", logicalPath)
	}
	clean := path.Clean(logicalPath)
	name := path.Base(clean)
	if name == "/" || name == "." {
		return nil, "", fmt.Errorf("path has no file name: %q", logicalPath)
	}

	var segments []string
	dir := strings.Trim(path.Dir(clean), "/")
	if dir != "" {
		segments = strings.Split(dir, "/")
	}
	return segments, name, nil
}

// skipRoot drops a leading segment that names the root folder itself. A
// path like /SuiteScripts/app/lib.js does not require a folder literally
// called SuiteScripts to exist under the root.
func (s *CabinetService) skipRoot(segments []string) []string {
	if len(segments) > 0 && strings.EqualFold(segments[0], s.config.RootFolderName) {
		return segments[1:]
	}
	return segments
}

// resolveFolder walks segments from the root folder, matching each name
// under the current parent. The walk is all-or-nothing: any missing
// segment yields common.ErrNotFound, never a partial match.
func (s *CabinetService) resolveFolder(ctx context.Context, db dbx.DBTX, segments []string) (int64, error) {
	folders := s.repos.Folders(db)

	current := s.config.RootFolderID
	for _, seg := range s.skipRoot(segments) {
		child, err := folders.ChildByName(ctx, current, seg)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return 0, common.ErrNotFound
			}
			return 0, fmt.Errorf("resolve folder %q: %w", seg, err)
		}
		current = child.ID
	}
	return current, nil
}

// ensureFolderPath walks the same segments, descending into existing
// children and creating the missing ones. Existing nodes are never renamed
// or deleted. Returns the deepest folder id.
func (s *CabinetService) ensureFolderPath(ctx context.Context, db dbx.DBTX, segments []string) (int64, error) {
	folders := s.repos.Folders(db)

	current := s.config.RootFolderID
	for _, seg := range s.skipRoot(segments) {
		child, err := folders.ChildByName(ctx, current, seg)
		if err == nil {
			current = child.ID
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return 0, fmt.Errorf("lookup folder %q: %w", seg, err)
		}
		created, err := folders.Create(ctx, current, seg)
		if err != nil {
			return 0, fmt.Errorf("create folder %q: %w", seg, err)
		}
		current = created.ID
	}
	return current, nil
}

// Upsert stores the request's content at its logical path, creating the
// folder chain and the file as needed. When a file already exists at
// (name, folder) the write preserves its identifier, so references to that
// id elsewhere stay valid.
func (s *CabinetService) Upsert(ctx context.Context, req *restlet.UploadRequest) (*UpsertResult, error) {
	content, err := decodeContent(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkPolicy(req.Path, int64(len(content))); err != nil {
		return nil, err
	}

	segments, name, err := splitPath(req.Path)
	if err != nil {
		return nil, err
	}

	result := &UpsertResult{Path: req.Path}
	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var folderID int64
		if req.Folder != nil {
			folderID = *req.Folder
		} else {
			folderID, err = s.ensureFolderPath(ctx, tx, segments)
			if err != nil {
				return err
			}
		}

		files := s.repos.Files(tx)
		existing, err := files.ByFolderAndName(ctx, folderID, name)
		switch {
		case err == nil:
			// Overwrite in place: same id, same storage key.
			existing.FileType = filetype.ForName(name)
			existing.Description = req.Description
			existing.SizeBytes = int64(len(content))
			if err := s.store.Put(ctx, existing.StorageKey, content); err != nil {
				return err
			}
			if err := files.UpdateContent(ctx, existing); err != nil {
				return err
			}
			result.FileID = existing.ID
			result.Action = restlet.ActionUpdate
			return nil

		case errors.Is(err, common.ErrNotFound):
			file := &models.File{
				Name:        name,
				FolderID:    folderID,
				FileType:    filetype.ForName(name),
				StorageKey:  storage.NewStorageKey(),
				Description: req.Description,
				SizeBytes:   int64(len(content)),
			}
			if err := s.store.Put(ctx, file.StorageKey, content); err != nil {
				return err
			}
			if err := files.Create(ctx, file); err != nil {
				return err
			}
			result.FileID = file.ID
			result.Action = restlet.ActionCreate
			return nil

		default:
			return fmt.Errorf("lookup file %q: %w", name, err)
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "upsert", "path", req.Path, "action", result.Action, "id", result.FileID)
	return result, nil
}

// DeleteByPath removes the file at the logical path. Missing folders or
// files yield common.ErrNotFound.
func (s *CabinetService) DeleteByPath(ctx context.Context, logicalPath string) (int64, error) {
	segments, name, err := splitPath(logicalPath)
	if err != nil {
		return 0, err
	}

	var fileID int64
	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		folderID, err := s.resolveFolder(ctx, tx, segments)
		if err != nil {
			return err
		}
		files := s.repos.Files(tx)
		file, err := files.ByFolderAndName(ctx, folderID, name)
		if err != nil {
			return err
		}
		if err := files.DeleteByID(ctx, file.ID); err != nil {
			return err
		}
		fileID = file.ID
		return s.store.Delete(ctx, file.StorageKey)
	})
	if err != nil {
		return 0, err
	}
	return fileID, nil
}

// DeleteByID removes a file by its identifier.
func (s *CabinetService) DeleteByID(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		files := s.repos.Files(tx)
		file, err := files.ByID(ctx, id)
		if err != nil {
			return err
		}
		if err := files.DeleteByID(ctx, file.ID); err != nil {
			return err
		}
		return s.store.Delete(ctx, file.StorageKey)
	})
}

// Info answers the side-effect-free connection test.
func (s *CabinetService) Info() *restlet.ConnectionInfo {
	return &restlet.ConnectionInfo{
		Success:   true,
		Version:   Version,
		Timestamp: time.Now().Unix(),
		User: restlet.UserInfo{
			ID:   1,
			Name: s.config.TokenID,
			Role: "integration",
		},
	}
}

func (s *CabinetService) checkPolicy(logicalPath string, size int64) error {
	if s.config.MaxFileSize > 0 && size > s.config.MaxFileSize {
		return fmt.Errorf("%w: %d bytes, limit %d", common.ErrFileTooLarge, size, s.config.MaxFileSize)
	}
	if len(s.config.AllowedExtensions) == 0 {
		return nil
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(logicalPath)), ".")
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimPrefix(allowed, ".")) {
			return nil
		}
	}
	return fmt.Errorf("%w: .%s", common.ErrExtensionNotAllowed, ext)
}

func decodeContent(req *restlet.UploadRequest) ([]byte, error) {
	switch req.Encoding {
	case "", restlet.EncodingUTF8:
		return []byte(req.Content), nil
	case restlet.EncodingBase64:
		content, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64 content: %v", common.ErrParse, err)
		}
		return content, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", req.Encoding)
	}
}
