// Package pathmap maps a locally saved file to the physical file whose
// bytes get uploaded and to its logical path in the remote cabinet.
//
// Resolution is a pure function of its inputs: it never touches the
// filesystem, so a saved path may map to a build output that does not exist
// yet. Existence is the dispatcher's problem.
package pathmap

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/suitesync/internal/common"
)

// Target describes one upload derived from a save event. It is created per
// event and consumed once by the dispatcher.
type Target struct {
	// PhysicalPath is the local file whose bytes are transmitted. When the
	// upload folder differs from the watch folder this is the transpiled
	// sibling of the saved file, not the saved file itself.
	PhysicalPath string

	// RemotePath is the slash-delimited cabinet path, always starting with
	// exactly one "/".
	RemotePath string

	// WasRemapped is true when PhysicalPath was substituted from the upload
	// folder rather than taken from the save event directly.
	WasRemapped bool
}

// Resolve computes the upload target for savedPath.
//
// watchFolder and uploadFolder are workspace-relative folder names (e.g.
// "src" and "dist"). rootRemotePath is the cabinet root the remote path is
// anchored under when no root marker occurs in the local path (e.g.
// "/SuiteScripts").
//
// Paths containing parent-directory segments are rejected, never resolved.
func Resolve(savedPath, workspaceRoot, watchFolder, uploadFolder, rootRemotePath string) (Target, error) {
	rel := normalize(savedPath)
	root := normalize(workspaceRoot)
	if root != "" {
		rel = strings.TrimPrefix(rel, root+"/")
	}

	if err := checkSanitized(rel); err != nil {
		return Target{}, err
	}

	watch := strings.Trim(normalize(watchFolder), "/")
	upload := strings.Trim(normalize(uploadFolder), "/")

	physicalRel := rel
	remapped := false
	switch {
	case watch == "" || !underFolder(rel, watch):
		// Saves outside the watch tree pass through unchanged.
	case upload == watch:
		// No build step, the saved file is the physical file.
	default:
		physicalRel = upload + strings.TrimPrefix(rel, watch)
		remapped = true
	}

	return Target{
		PhysicalPath: filepath.Join(filepath.FromSlash(workspaceRoot), filepath.FromSlash(physicalRel)),
		RemotePath:   remotePath(physicalRel, watch, upload, rootRemotePath),
		WasRemapped:  remapped,
	}, nil
}

// remotePath derives the cabinet path from the physical file's
// workspace-relative form.
func remotePath(physicalRel, watch, upload, rootRemotePath string) string {
	remainder := physicalRel
	for _, prefix := range []string{upload, watch} {
		if prefix != "" && underFolder(remainder, prefix) {
			remainder = strings.TrimPrefix(remainder, prefix+"/")
			break
		}
	}
	remainder = strings.TrimPrefix(remainder, "FileCabinet/")

	rootClean := "/" + strings.Trim(normalize(rootRemotePath), "/")
	marker := path.Base(rootClean)

	segments := strings.Split(remainder, "/")
	for i, seg := range segments {
		if strings.EqualFold(seg, marker) {
			return path.Clean("/" + strings.Join(segments[i:], "/"))
		}
	}
	return path.Clean(rootClean + "/" + remainder)
}

// normalize converts separators to forward slashes and collapses repeats.
func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return strings.TrimSuffix(p, "/")
}

func underFolder(rel, folder string) bool {
	return rel == folder || strings.HasPrefix(rel, folder+"/")
}

func checkSanitized(rel string) error {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %s", common.ErrPathTraversal, rel)
		}
	}
	return nil
}
