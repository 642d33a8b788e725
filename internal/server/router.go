package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chessforge/backend/internal/customization"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errMissingCustomizations = errors.New("customization service dependency required")

// Dependencies lists what the HTTP handler needs at construction time.
type Dependencies struct {
	Customizations *customization.Service
	Logger         *zap.Logger
}

// NewHTTPHandler wires the API routes and returns the root handler.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Customizations == nil {
		return nil, errMissingCustomizations
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		customizations: deps.Customizations,
		logger:         logger,
	}

	router.GET("/health", handler.handleHealth)

	api := router.Group("/api/customizations")
	api.POST("", handler.handleCreate)
	api.GET("", handler.handleGetAll)
	api.GET("/:id", handler.handleGetByID)
	api.PUT("/:id", handler.handleUpdate)
	api.DELETE("/:id", handler.handleDelete)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorEnvelope{
			Success: false,
			Error:   errorKindNotFound,
			Message: fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path),
		})
	})

	return router, nil
}

type httpHandler struct {
	customizations *customization.Service
	logger         *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *httpHandler) handleCreate(c *gin.Context) {
	payload, err := decodeBody(c)
	if err != nil {
		h.respondError(c, "create", err)
		return
	}

	cmd, result := customization.ValidateCreate(payload)
	if !result.Valid {
		h.respondError(c, "create", result.Err())
		return
	}

	record, err := h.customizations.Create(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, "create", err)
		return
	}

	h.logger.Info("customization created",
		zap.String("customization_id", record.ID),
		zap.Int("pieces", len(record.Pieces)))
	respondSuccess(c, http.StatusCreated, toPayload(record), "Customization created successfully")
}

func (h *httpHandler) handleGetAll(c *gin.Context) {
	records, err := h.customizations.GetAll(c.Request.Context())
	if err != nil {
		h.respondError(c, "get_all", err)
		return
	}

	payloads := make([]customizationPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, toPayload(record))
	}
	respondSuccess(c, http.StatusOK, payloads, fmt.Sprintf("Retrieved %d customizations", len(payloads)))
}

func (h *httpHandler) handleGetByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.respondError(c, "get_by_id", &customization.ValidationError{Messages: []string{"Customization id is required"}})
		return
	}

	record, err := h.customizations.GetByID(c.Request.Context(), id)
	if errors.Is(err, customization.ErrNotFound) {
		respondNotFound(c, id)
		return
	}
	if err != nil {
		h.respondError(c, "get_by_id", err)
		return
	}

	respondSuccess(c, http.StatusOK, toPayload(record), "Customization retrieved successfully")
}

func (h *httpHandler) handleUpdate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.respondError(c, "update", &customization.ValidationError{Messages: []string{"Customization id is required"}})
		return
	}

	exists, err := h.customizations.Exists(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "update", err)
		return
	}
	if !exists {
		respondNotFound(c, id)
		return
	}

	payload, err := decodeBody(c)
	if err != nil {
		h.respondError(c, "update", err)
		return
	}

	cmd, result := customization.ValidateUpdate(payload)
	if !result.Valid {
		h.respondError(c, "update", result.Err())
		return
	}

	record, err := h.customizations.Update(c.Request.Context(), id, cmd)
	if errors.Is(err, customization.ErrNotFound) {
		// The existence check passed moments ago, so a concurrent delete
		// must have removed the row mid-flight.
		h.logger.Error("customization vanished during update", zap.String("customization_id", id))
		respondInternalError(c)
		return
	}
	if err != nil {
		h.respondError(c, "update", err)
		return
	}

	h.logger.Info("customization updated", zap.String("customization_id", id))
	respondSuccess(c, http.StatusOK, toPayload(record), "Customization updated successfully")
}

func (h *httpHandler) handleDelete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	exists, err := h.customizations.Exists(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "delete", err)
		return
	}
	if !exists {
		respondNotFound(c, id)
		return
	}

	removed, err := h.customizations.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "delete", err)
		return
	}
	if !removed {
		h.logger.Error("customization vanished during delete", zap.String("customization_id", id))
		respondInternalError(c)
		return
	}

	h.logger.Info("customization deleted", zap.String("customization_id", id))
	c.Status(http.StatusNoContent)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
