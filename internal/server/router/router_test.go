package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
	"github.com/dmitrijs2005/suitesync/internal/server/auth"
	"github.com/dmitrijs2005/suitesync/internal/server/observability"
	"github.com/dmitrijs2005/suitesync/internal/server/services"
	"github.com/dmitrijs2005/suitesync/internal/tba"
)

type fakeCabinet struct {
	upsertErr  error
	deleteErr  error
	lastUpsert *restlet.UploadRequest
	deletedID  int64
	deleted    string
}

func (f *fakeCabinet) Upsert(ctx context.Context, req *restlet.UploadRequest) (*services.UpsertResult, error) {
	f.lastUpsert = req
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return &services.UpsertResult{FileID: 42, Action: restlet.ActionCreate, Path: req.Path}, nil
}

func (f *fakeCabinet) DeleteByPath(ctx context.Context, logicalPath string) (int64, error) {
	f.deleted = logicalPath
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 7, nil
}

func (f *fakeCabinet) DeleteByID(ctx context.Context, id int64) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeCabinet) Info() *restlet.ConnectionInfo {
	return &restlet.ConnectionInfo{Success: true, Version: services.Version, Timestamp: time.Now().Unix()}
}

func testCreds() tba.Credentials {
	return tba.Credentials{
		AccountID:      "123456",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tk",
		TokenSecret:    "ts",
	}
}

func setup(t *testing.T, cabinet *fakeCabinet) (*gin.Engine, *tba.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	verifier, err := auth.NewVerifier(testCreds(), 5*time.Minute, logger)
	require.NoError(t, err)
	signer, err := tba.NewSigner(testCreds())
	require.NoError(t, err)
	return New(cabinet, verifier, observability.NewMetrics(), logger), signer
}

func signedJSON(t *testing.T, signer *tba.Signer, method string, body any) *http.Request {
	t.Helper()
	const target = "http://cabinet.example/"
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	header, err := signer.Sign(method, target)
	require.NoError(t, err)
	req.Header.Set("Authorization", header)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUpload_OK(t *testing.T) {
	cabinet := &fakeCabinet{}
	engine, signer := setup(t, cabinet)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodPost, &restlet.UploadRequest{
		Path: "/SuiteScripts/a.js", Content: "x", Encoding: restlet.EncodingUTF8,
	}))

	require.Equal(t, http.StatusOK, w.Code)
	var resp restlet.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), resp.FileID)
	assert.Equal(t, restlet.ActionCreate, resp.Action)
	assert.Equal(t, "/SuiteScripts/a.js", cabinet.lastUpsert.Path)
}

func TestUpload_RequiresSignature(t *testing.T) {
	engine, _ := setup(t, &fakeCabinet{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "http://cabinet.example/", bytes.NewReader([]byte(`{}`)))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpload_PolicyRejectionIs400(t *testing.T) {
	cabinet := &fakeCabinet{upsertErr: common.ErrFileTooLarge}
	engine, signer := setup(t, cabinet)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodPost, &restlet.UploadRequest{Path: "/a.js", Content: "x"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestUpload_InternalErrorHidesDetail(t *testing.T) {
	cabinet := &fakeCabinet{upsertErr: errors.New("pq: connection reset")}
	engine, signer := setup(t, cabinet)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodPost, &restlet.UploadRequest{Path: "/a.js", Content: "x"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestUpload_BadBodyIs400(t *testing.T) {
	engine, signer := setup(t, &fakeCabinet{})

	const target = "http://cabinet.example/"
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte("{not json")))
	header, err := signer.Sign(http.MethodPost, target)
	require.NoError(t, err)
	req.Header.Set("Authorization", header)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfo(t *testing.T) {
	engine, signer := setup(t, &fakeCabinet{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodGet, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var info restlet.ConnectionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Success)
	assert.Equal(t, services.Version, info.Version)
}

func TestDelete_ByPath(t *testing.T) {
	cabinet := &fakeCabinet{}
	engine, signer := setup(t, cabinet)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodDelete, &restlet.DeleteRequest{Path: "/SuiteScripts/a.js"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/SuiteScripts/a.js", cabinet.deleted)
	var resp restlet.DeleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.FileID)
}

func TestDelete_ByID(t *testing.T) {
	cabinet := &fakeCabinet{}
	engine, signer := setup(t, cabinet)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodDelete, &restlet.DeleteRequest{FileID: 99}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(99), cabinet.deletedID)
}

func TestDelete_MissingFileIs404(t *testing.T) {
	cabinet := &fakeCabinet{deleteErr: common.ErrNotFound}
	engine, signer := setup(t, cabinet)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodDelete, &restlet.DeleteRequest{Path: "/nope.js"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_RequiresTarget(t *testing.T) {
	engine, signer := setup(t, &fakeCabinet{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedJSON(t, signer, http.MethodDelete, &restlet.DeleteRequest{}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpointIsOpen(t *testing.T) {
	engine, _ := setup(t, &fakeCabinet{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://cabinet.example/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
