package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chessforge/backend/internal/customization"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errorKindValidation = "Validation failed"
	errorKindNotFound   = "Not found"
	errorKindBadRequest = "Bad request"
	errorKindInternal   = "Internal server error"
)

// errMalformedBody marks a request body that could not be parsed as JSON at
// all, as opposed to one that parsed but failed validation.
var errMalformedBody = errors.New("request body is not valid JSON")

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type customizationPayload struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	BoardImage  *string        `json:"boardImage"`
	Pieces      []piecePayload `json:"pieces"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type piecePayload struct {
	Type      string `json:"type"`
	Color     string `json:"color"`
	ImageData string `json:"imageData"`
}

func toPayload(record customization.Customization) customizationPayload {
	pieces := make([]piecePayload, 0, len(record.Pieces))
	for _, piece := range record.Pieces {
		pieces = append(pieces, piecePayload{
			Type:      string(piece.Type),
			Color:     string(piece.Color),
			ImageData: piece.ImageData,
		})
	}
	return customizationPayload{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		BoardImage:  record.BoardImage,
		Pieces:      pieces,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// decodeBody reads the request body into the untyped payload the validator
// consumes. A missing or non-object body yields a nil payload, which the
// validator turns into its "body required" violation; syntactically broken
// JSON is a distinct malformed-input failure.
func decodeBody(c *gin.Context) (map[string]any, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, nil
	}
	return payload, nil
}

func respondSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, successEnvelope{Success: true, Data: data, Message: message})
}

func respondNotFound(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, errorEnvelope{
		Success: false,
		Error:   errorKindNotFound,
		Message: fmt.Sprintf("Customization with id %s not found", id),
	})
}

func respondInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, errorEnvelope{
		Success: false,
		Error:   errorKindInternal,
		Message: "An unexpected error occurred",
	})
}

// respondError logs the failure with its operation context and delegates to
// the single taxonomy-to-status translation. Store detail never reaches the
// client.
func (h *httpHandler) respondError(c *gin.Context, operation string, err error) {
	h.logger.Error("request failed",
		zap.String("operation", operation),
		zap.Error(err))
	translateError(c, err)
}

func translateError(c *gin.Context, err error) {
	var validationErr *customization.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorEnvelope{
			Success: false,
			Error:   errorKindValidation,
			Message: "Request validation failed",
			Details: validationErr.Messages,
		})
	case errors.Is(err, customization.ErrNotFound):
		c.JSON(http.StatusNotFound, errorEnvelope{
			Success: false,
			Error:   errorKindNotFound,
			Message: "Customization not found",
		})
	case errors.Is(err, errMalformedBody):
		c.JSON(http.StatusBadRequest, errorEnvelope{
			Success: false,
			Error:   errorKindBadRequest,
			Message: "Request body must be valid JSON",
		})
	default:
		respondInternalError(c)
	}
}
