// Package restlet defines the JSON wire contract of the cabinet endpoint
// and the HTTP client that speaks it.
package restlet

// Content encodings accepted by the endpoint.
const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

// Actions reported back by an upsert.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// DefaultMaxFileSize is the client-side upload size limit in bytes.
const DefaultMaxFileSize = 5 * 1024 * 1024

// UploadRequest is the POST body for a create-or-update.
type UploadRequest struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Encoding    string `json:"encoding,omitempty"`
	Folder      *int64 `json:"folder,omitempty"`
	Description string `json:"description,omitempty"`
}

// UploadResponse is the endpoint's answer to an upload. A non-2xx status or
// Success=false both count as failure.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	FileID   int64  `json:"fileId,omitempty"`
	Path     string `json:"path,omitempty"`
	Action   string `json:"action,omitempty"`
	Duration int64  `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ConnectionInfo is returned by the GET health check. It has no side
// effects and exists for connection-test UX only.
type ConnectionInfo struct {
	Success   bool     `json:"success"`
	Version   string   `json:"version"`
	Timestamp int64    `json:"timestamp"`
	User      UserInfo `json:"user"`
	Error     string   `json:"error,omitempty"`
}

// UserInfo identifies the token owner the endpoint resolved the request to.
type UserInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// DeleteRequest removes a file by cabinet path or by explicit id.
type DeleteRequest struct {
	Path   string `json:"path,omitempty"`
	FileID int64  `json:"fileId,omitempty"`
}

// DeleteResponse reports the outcome of a delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	FileID  int64  `json:"fileId,omitempty"`
	Error   string `json:"error,omitempty"`
}
