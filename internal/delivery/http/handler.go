package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricematch/backend/internal/domain"
	"github.com/pricematch/backend/internal/usecase"
)

// DefaultMaxBatchSize caps the number of items accepted by the batch endpoint
const DefaultMaxBatchSize = 500

// Matcher is the matching use case the handlers delegate to
type Matcher interface {
	MatchItem(ctx context.Context, item domain.InvoiceLineItem) domain.ItemMatch
	MatchBatch(ctx context.Context, items []domain.InvoiceLineItem) []domain.ItemMatch
	Recommend(ctx context.Context, item domain.InvoiceLineItem) (*domain.FunnelResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher      Matcher
	maxBatchSize int
}

// NewHandler creates a new HTTP handler. A nil matcher leaves the matching
// endpoints answering 501 while analyze and health keep working.
func NewHandler(matcher Matcher, maxBatchSize int) *Handler {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &Handler{matcher: matcher, maxBatchSize: maxBatchSize}
}

// BatchRequest is the body of POST /api/v1/match/batch
type BatchRequest struct {
	Items []domain.InvoiceLineItem `json:"items" binding:"required"`
}

// BatchResponse is the response of POST /api/v1/match/batch
type BatchResponse struct {
	Results []domain.ItemMatch         `json:"results"`
	Summary map[domain.MatchStatus]int `json:"summary"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	ItemName  string  `json:"itemName" binding:"required"`
	Spec      string  `json:"spec,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricematch-backend",
		"version": "1.0.0",
	})
}

// MatchItem handles single line item matching
func (h *Handler) MatchItem(c *gin.Context) {
	if h.matcher == nil {
		notConfigured(c)
		return
	}

	var item domain.InvoiceLineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.matcher.MatchItem(c.Request.Context(), item))
}

// MatchBatch handles invoice batch matching. Per-item failures are reported
// inside the results; the request itself only fails on a malformed body.
func (h *Handler) MatchBatch(c *gin.Context) {
	if h.matcher == nil {
		notConfigured(c)
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Items) == 0 {
		badRequest(c, errors.New("items must not be empty"))
		return
	}
	if len(req.Items) > h.maxBatchSize {
		badRequest(c, fmt.Errorf("batch of %d items exceeds the limit of %d", len(req.Items), h.maxBatchSize))
		return
	}

	results := h.matcher.MatchBatch(c.Request.Context(), req.Items)

	summary := make(map[domain.MatchStatus]int, 3)
	for _, r := range results {
		summary[r.Result.Status]++
	}

	c.JSON(http.StatusOK, BatchResponse{Results: results, Summary: summary})
}

// Funnel handles funnel recommendations for one line item
func (h *Handler) Funnel(c *gin.Context) {
	if h.matcher == nil {
		notConfigured(c)
		return
	}

	var item domain.InvoiceLineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.matcher.Recommend(c.Request.Context(), item)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Analyze returns the normalized query, parsed spec, price per unit and
// attribute tags for a line item. It never touches the catalog.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item := domain.InvoiceLineItem{ItemName: req.ItemName, Spec: req.Spec, UnitPrice: req.UnitPrice}
	c.JSON(http.StatusOK, usecase.Analyze(item))
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoCandidates):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSearchFailure), errors.Is(err, domain.ErrEmbeddingFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": fmt.Sprintf("%s: %v", domain.ErrInvalidRequest, err),
	})
}

func notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "matching service not configured",
	})
}
