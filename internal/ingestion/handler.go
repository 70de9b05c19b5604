package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	httperr "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgReadBodyFailed    = "Failed to read request body"
	msgInvalidJSON       = "Invalid JSON body"
	msgPersistFailed     = "Failed to persist sale"
	msgDuplicateSale     = "Sale already exists"
	msgStoreUnavailable  = "Sales store is unavailable"
	msgRevenueRequired   = "unitRevenue or totalRevenue is required"
	msgRevenueMismatched = "totalRevenue must equal unitRevenue * quantity"
)

// saleRequest is the POST /sales body. Either revenue field may be omitted
// and is then derived from the other.
type saleRequest struct {
	ID           string           `json:"id"`
	CustomerID   string           `json:"customerId"`
	ProductID    string           `json:"productId"`
	Quantity     int64            `json:"quantity"`
	UnitRevenue  *decimal.Decimal `json:"unitRevenue"`
	TotalRevenue *decimal.Decimal `json:"totalRevenue"`
	OccurredAt   *time.Time       `json:"occurredAt"`
}

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles POST /sales.
func (s *Service) IngestHandler(c *gin.Context) {
	req, payloadSize, err := s.parseSale(c)
	if err != nil {
		writeError(c, err)
		return
	}

	sale, err := s.buildSale(req)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("[Ingestion] Received sale",
		"sale_id", sale.ID,
		"product_id", sale.ProductID,
		"customer_id", sale.CustomerID,
		"total_revenue", sale.TotalRevenue.String(),
		"payload_size", payloadSize)

	if err := s.persistSale(c.Request.Context(), sale); err != nil {
		writeError(c, err)
		return
	}

	// The change feed picks the row up and pushes it to live subscribers.
	c.JSON(http.StatusCreated, sale)
}

// parseSale reads the raw request body and binds it into a saleRequest.
// Returns the parsed request and the raw payload size (used for structured logging upstream).
func (s *Service) parseSale(c *gin.Context) (*saleRequest, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    err.Error(),
		}
	}
	return &req, len(bodyBytes), nil
}

// buildSale fills defaults (id, occurredAt, the missing revenue field) and
// validates the result.
func (s *Service) buildSale(req *saleRequest) (*v1.SaleEvent, *ingestionError) {
	sale := &v1.SaleEvent{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	}
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if req.OccurredAt != nil {
		sale.OccurredAt = req.OccurredAt.UTC()
	} else {
		sale.OccurredAt = s.nowFn()
	}

	if req.Quantity > 0 {
		qty := decimal.NewFromInt(req.Quantity)
		switch {
		case req.UnitRevenue != nil && req.TotalRevenue != nil:
			sale.UnitRevenue, sale.TotalRevenue = *req.UnitRevenue, *req.TotalRevenue
			if !sale.UnitRevenue.Mul(qty).Equal(sale.TotalRevenue) {
				return nil, validationError(msgRevenueMismatched)
			}
		case req.TotalRevenue != nil:
			sale.TotalRevenue = *req.TotalRevenue
			sale.UnitRevenue = sale.TotalRevenue.DivRound(qty, 2)
		case req.UnitRevenue != nil:
			sale.UnitRevenue = *req.UnitRevenue
			sale.TotalRevenue = sale.UnitRevenue.Mul(qty)
		default:
			return nil, validationError(msgRevenueRequired)
		}
	}

	if err := sale.Validate(); err != nil {
		slog.Warn("[Ingestion] Sale validation failed", "error", err, "sale_id", sale.ID)
		return nil, validationError(err.Error())
	}
	return sale, nil
}

// persistSale saves the sale to the backing store.
func (s *Service) persistSale(ctx context.Context, sale *v1.SaleEvent) *ingestionError {
	err := s.store.SaveSale(ctx, sale)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrDuplicate):
		slog.Info("[Ingestion] Duplicate sale rejected", "sale_id", sale.ID)
		return &ingestionError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpDuplicateEventError,
			message:    msgDuplicateSale,
		}
	case errors.Is(err, storage.ErrStoreUnavailable):
		slog.Error("[Ingestion] Store unavailable", "error", err, "sale_id", sale.ID)
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpStoreUnavailableError,
			message:    msgStoreUnavailable,
		}
	default:
		slog.Error("[Ingestion] Failed to persist sale", "error", err, "sale_id", sale.ID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
}

func validationError(msg string) *ingestionError {
	return &ingestionError{
		statusCode: http.StatusBadRequest,
		errorType:  httperr.HttpValidationError,
		message:    msg,
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
