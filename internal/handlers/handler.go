package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-pos-inventory/internal/ai"
	"go-pos-inventory/internal/auth"
	"go-pos-inventory/internal/barcode"
	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/idempotency"
	"go-pos-inventory/internal/logging"
	"go-pos-inventory/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const failedTransactionMessage = "Transaction failed, please try again"

type Options struct {
	Production        bool
	BaseURL           string
	UploadDir         string
	AllowRegistration bool
}

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	store    *database.Store
	checkout *checkout.Coordinator
	tokens   *auth.TokenManager
	guard    idempotency.Guard
	agent    *ai.Agent
	logger   logrus.FieldLogger
	opts     Options
}

func New(store *database.Store, coord *checkout.Coordinator, tokens *auth.TokenManager, guard idempotency.Guard, agent *ai.Agent, logger logrus.FieldLogger, opts Options) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "./uploads"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}
	return &Handler{
		store:    store,
		checkout: coord,
		tokens:   tokens,
		guard:    guard,
		agent:    agent,
		logger:   logger,
		opts:     opts,
	}
}

func (h *Handler) log(c *gin.Context) logrus.FieldLogger {
	return middleware.Logger(c, h.logger)
}

// respondError maps domain errors to status codes. Domain errors carry
// user-facing text; backend failures only do outside production.
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidProduct),
		errors.Is(err, database.ErrNegativeStock),
		errors.Is(err, barcode.ErrUnknownKind),
		errors.Is(err, database.ErrInvalidUser),
		errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, checkout.ErrProductNotFound),
		errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, checkout.ErrInsufficientStock),
		errors.Is(err, database.ErrDuplicateBarcode),
		errors.Is(err, database.ErrDuplicateUser),
		errors.Is(err, database.ErrBarcodeExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, checkout.ErrTransactionFailed):
		msg := failedTransactionMessage
		if !h.opts.Production {
			msg = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})

	case errors.Is(err, ai.ErrNoAPIKey):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured on this server"})

	default:
		h.log(c).WithError(err).Error("Unhandled request error")
		msg := "Internal server error"
		if !h.opts.Production {
			msg = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return 0, false
	}
	return uint(id), true
}

// --- GET: /health ---
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}
