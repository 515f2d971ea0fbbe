package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estate/server/config"
	"estate/server/internal/models"
	"estate/server/internal/telegram"
	"estate/server/internal/workflow"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	engine          *workflow.Engine
	db              Pinger
	logger          *logrus.Logger
	telegramService *telegram.Service
	filters         *config.FilterStore
}

func NewHandler(engine *workflow.Engine, db Pinger, telegramService *telegram.Service, filters *config.FilterStore, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		engine:          engine,
		db:              db,
		logger:          logger,
		telegramService: telegramService,
		filters:         filters,
	}
}

// respondError maps workflow errors onto HTTP statuses. Anything unknown is
// logged and reported as failure without details.
func (h *Handler) respondError(c *gin.Context, err error, failure string) {
	var validationErr *models.ValidationError
	var invalidOp *models.InvalidOperationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &invalidOp):
		c.JSON(http.StatusConflict, gin.H{"error": invalidOp.Message})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.requestLogger(c).WithError(err).Error(failure)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
	}
}

func (h *Handler) requestLogger(c *gin.Context) *logrus.Entry {
	return h.logger.WithField("request_id", c.GetString(requestIDKey))
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.requestLogger(c).WithError(err).Debug("Invalid request body")
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// idParam reads a positive integer path parameter, answering 400 if it is not one.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.requestLogger(c).WithError(err).Error("Database is unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetPropertyStats(c *gin.Context) {
	stats, err := h.engine.PropertyStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get property stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
