package models

import "time"

// File is a cabinet file record. (Name, FolderID) is unique and acts as the
// natural key for upserts; ID is the stable identifier that must survive
// content overwrites.
type File struct {
	ID          int64
	Name        string
	FolderID    int64
	FileType    string
	StorageKey  string
	Description string
	SizeBytes   int64
	UpdatedAt   time.Time
}
