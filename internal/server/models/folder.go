// Package models defines the persisted entities of the file cabinet.
package models

// Folder is one node of the cabinet folder tree. The tree hangs under a
// fixed root folder; existing nodes are never renamed or reparented by the
// service, only appended to.
type Folder struct {
	ID       int64
	Name     string
	ParentID int64
}
