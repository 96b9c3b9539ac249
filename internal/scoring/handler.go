package scoring

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mbd888/fraudgate/internal/validation"
	"github.com/shopspring/decimal"
)

// Handler provides the HTTP endpoint for scoring.
type Handler struct {
	service *Service
}

// NewHandler creates a new scoring handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the scoring routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/fraud/score", h.Score)
}

// Score handles POST /fraud/score?user_id&txn_id&amount&merchant&geo
func (h *Handler) Score(c *gin.Context) {
	req, errs := parseScoreRequest(c)
	if len(errs) > 0 {
		validation.AbortInvalid(c, errs)
		return
	}

	c.JSON(http.StatusOK, h.service.Score(c.Request.Context(), req))
}

func parseScoreRequest(c *gin.Context) (ScoreRequest, validation.ValidationErrors) {
	userID := c.Query("user_id")
	txnID := c.Query("txn_id")
	rawAmount := c.Query("amount")
	merchant := c.Query("merchant")
	geo := c.Query("geo")

	errs := validation.Validate(
		validation.Required("user_id", userID),
		validation.MaxLength("user_id", userID, validation.MaxIDLength),
		validation.Required("txn_id", txnID),
		validation.MaxLength("txn_id", txnID, validation.MaxIDLength),
		validation.Required("amount", rawAmount),
		validation.Required("merchant", merchant),
		validation.Required("geo", geo),
	)
	if len(errs) > 0 {
		return ScoreRequest{}, errs
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return ScoreRequest{}, validation.ValidationErrors{{Field: "amount", Message: "must be a decimal number"}}
	}

	return ScoreRequest{
		UserID:   validation.SanitizeString(userID, validation.MaxIDLength),
		TxnID:    validation.SanitizeString(txnID, validation.MaxIDLength),
		Amount:   amount,
		Merchant: validation.SanitizeString(merchant, validation.MaxTextLength),
		Geo:      validation.SanitizeString(geo, validation.MaxTextLength),
	}, nil
}
