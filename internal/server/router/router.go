// Package router wires the cabinet endpoint's HTTP surface: one route each
// for upload, connection test, and delete, plus the metrics scrape.
package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
	"github.com/dmitrijs2005/suitesync/internal/server/auth"
	"github.com/dmitrijs2005/suitesync/internal/server/observability"
	"github.com/dmitrijs2005/suitesync/internal/server/services"
)

// Cabinet is the service surface the handlers call.
type Cabinet interface {
	Upsert(ctx context.Context, req *restlet.UploadRequest) (*services.UpsertResult, error)
	DeleteByPath(ctx context.Context, logicalPath string) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	Info() *restlet.ConnectionInfo
}

type handlers struct {
	cabinet Cabinet
	metrics *observability.Metrics
	logger  logging.Logger
}

// New assembles the gin engine. The verifier guards the cabinet routes; the
// metrics scrape stays unauthenticated.
func New(cabinet Cabinet, verifier *auth.Verifier, metrics *observability.Metrics, logger logging.Logger) *gin.Engine {
	h := &handlers{cabinet: cabinet, metrics: metrics, logger: logger}

	engine := gin.New()
	engine.Use(gin.Recovery(), h.observe())

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	guarded := engine.Group("/", verifier.Middleware())
	guarded.GET("", h.info)
	guarded.POST("", h.upload)
	guarded.DELETE("", h.remove)

	return engine
}

// observe logs each request and feeds the duration histogram.
func (h *handlers) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		h.metrics.ObserveRequest(c.Request.Method, strconv.Itoa(status), elapsed)
		if status == http.StatusUnauthorized {
			h.metrics.AuthFailures.Inc()
		}
		h.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

func (h *handlers) info(c *gin.Context) {
	c.JSON(http.StatusOK, h.cabinet.Info())
}

func (h *handlers) upload(c *gin.Context) {
	var req restlet.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, restlet.UploadResponse{Success: false, Error: "invalid request body"})
		return
	}

	start := time.Now()
	result, err := h.cabinet.Upsert(c.Request.Context(), &req)
	if err != nil {
		status, msg := statusFor(err)
		c.JSON(status, restlet.UploadResponse{Success: false, Path: req.Path, Error: msg})
		return
	}

	h.metrics.UploadsTotal.WithLabelValues(result.Action).Inc()
	h.metrics.UploadBytes.Observe(float64(len(req.Content)))

	c.JSON(http.StatusOK, restlet.UploadResponse{
		Success:  true,
		FileID:   result.FileID,
		Path:     result.Path,
		Action:   result.Action,
		Duration: time.Since(start).Milliseconds(),
	})
}

func (h *handlers) remove(c *gin.Context) {
	var req restlet.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, restlet.DeleteResponse{Success: false, Error: "invalid request body"})
		return
	}

	var (
		fileID int64
		err    error
	)
	switch {
	case req.FileID != 0:
		fileID = req.FileID
		err = h.cabinet.DeleteByID(c.Request.Context(), req.FileID)
	case req.Path != "":
		fileID, err = h.cabinet.DeleteByPath(c.Request.Context(), req.Path)
	default:
		c.JSON(http.StatusBadRequest, restlet.DeleteResponse{Success: false, Error: "path or fileId required"})
		return
	}
	if err != nil {
		status, msg := statusFor(err)
		c.JSON(status, restlet.DeleteResponse{Success: false, Error: msg})
		return
	}

	h.metrics.DeletesTotal.Inc()
	c.JSON(http.StatusOK, restlet.DeleteResponse{Success: true, FileID: fileID})
}

// statusFor maps service errors onto HTTP statuses. Internal failures keep
// their detail out of the response body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrFileTooLarge),
		errors.Is(err, common.ErrExtensionNotAllowed),
		errors.Is(err, common.ErrParse):
		return http.StatusBadRequest, err.Error()
	case auth.IsAuthError(err):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
