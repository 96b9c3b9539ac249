package toolproxy

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/fraudgate/internal/pagination"
	"github.com/mbd888/fraudgate/internal/validation"
)

// Handler provides the tool HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new tool handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the /tools routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	tools := r.Group("/tools")
	tools.GET("/getUserProfile", h.GetUserProfile)
	tools.GET("/getTransactions", h.GetTransactions)
	tools.POST("/flagTransaction", h.FlagTransaction)
	tools.GET("/flagged", h.ListFlagged)
}

// GetUserProfile handles GET /tools/getUserProfile?user_id
func (h *Handler) GetUserProfile(c *gin.Context) {
	userID := c.Query("user_id")
	if errs := validation.Validate(
		validation.Required("user_id", userID),
		validation.MaxLength("user_id", userID, validation.MaxIDLength),
	); len(errs) > 0 {
		validation.AbortInvalid(c, errs)
		return
	}

	userID = validation.SanitizeString(userID, validation.MaxIDLength)
	c.JSON(http.StatusOK, h.service.GetUserProfile(c.Request.Context(), userID))
}

// GetTransactions handles GET /tools/getTransactions?user_id&limit
func (h *Handler) GetTransactions(c *gin.Context) {
	userID := c.Query("user_id")
	limit, checkLimit := queryInt(c, "limit")
	if errs := validation.Validate(
		validation.Required("user_id", userID),
		validation.MaxLength("user_id", userID, validation.MaxIDLength),
		checkLimit,
	); len(errs) > 0 {
		validation.AbortInvalid(c, errs)
		return
	}

	userID = validation.SanitizeString(userID, validation.MaxIDLength)
	c.JSON(http.StatusOK, h.service.GetTransactions(c.Request.Context(), userID, limit))
}

// FlagTransaction handles POST /tools/flagTransaction?txn_id&reason
func (h *Handler) FlagTransaction(c *gin.Context) {
	txnID := c.Query("txn_id")
	reason := validation.SanitizeString(c.Query("reason"), validation.MaxTextLength)
	if errs := validation.Validate(
		validation.Required("txn_id", txnID),
		validation.MaxLength("txn_id", txnID, validation.MaxIDLength),
		validation.Required("reason", reason),
	); len(errs) > 0 {
		validation.AbortInvalid(c, errs)
		return
	}
	txnID = validation.SanitizeString(txnID, validation.MaxIDLength)

	ack, err := h.service.FlagTransaction(c.Request.Context(), txnID, reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to record flag",
		})
		return
	}

	c.JSON(http.StatusOK, ack)
}

// ListFlagged handles GET /tools/flagged?limit&cursor
func (h *Handler) ListFlagged(c *gin.Context) {
	limit, checkLimit := queryInt(c, "limit")
	if errs := validation.Validate(checkLimit); len(errs) > 0 {
		validation.AbortInvalid(c, errs)
		return
	}

	page, err := h.service.ListFlagged(c.Request.Context(), limit, c.Query("cursor"))
	if errors.Is(err, pagination.ErrInvalidCursor) {
		validation.AbortInvalid(c, validation.ValidationErrors{{Field: "cursor", Message: "is invalid"}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list flags",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flagged":     page.Items,
		"count":       len(page.Items),
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

// queryInt parses an optional integer query parameter; absent means 0.
// The returned validator reports a malformed value.
func queryInt(c *gin.Context, field string) (int, func() *validation.ValidationError) {
	raw := c.Query(field)
	n, err := strconv.Atoi(raw)
	return n, func() *validation.ValidationError {
		if raw != "" && err != nil {
			return &validation.ValidationError{Field: field, Message: "must be an integer"}
		}
		return nil
	}
}
