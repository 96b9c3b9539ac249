package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mbd888/fraudgate/internal/scoring"
	"github.com/mbd888/fraudgate/internal/scoring/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, tools scoring.Tools, policy scoring.Policy) (*gin.Engine, *scoring.Service) {
	t.Helper()
	svc, err := scoring.NewService(tools, policy, scoring.WithTimeouts(time.Second, time.Second))
	require.NoError(t, err)
	r := gin.New()
	scoring.NewHandler(svc).RegisterRoutes(r)
	return r, svc
}

func TestScoreHandler_HeuristicWhenBackendsDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockTools(ctrl)
	tools.EXPECT().GetUserProfile(gomock.Any(), "u1").Return(scoring.UserProfile{"id": "u1"}, nil)
	tools.EXPECT().GetTransactions(gomock.Any(), "u1", 50).Return(scoring.TransactionList{}, nil)
	tools.EXPECT().FlagTransaction(gomock.Any(), "t1", gomock.Any()).Return(nil)

	r, svc := newRouter(t, tools, scoring.Policy{
		Primary:   downBackend(scoring.BackendVertex, scoring.FailureDisabled),
		Secondary: downBackend(scoring.BackendStudio, scoring.FailureCallFailed),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/fraud/score?user_id=u1&txn_id=t1&amount=6000&merchant=X&geo=US", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0.7, body["risk_score"])
	assert.Equal(t, "REVIEW", body["decision"])
	assert.Equal(t, "heuristic", body["ai_backend"])
	assert.Equal(t, []any{"Fallback heuristic (Gemini unavailable).", "amount=6000"}, body["reasons"])
	assert.Equal(t, []any{"amount_threshold"}, body["features_used"])
	assert.Equal(t, map[string]any{"id": "u1", "recent_txn_count": float64(0), "profile_has_error": false}, body["user_summary"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.WaitForFlags(ctx))
}

func TestScoreHandler_ContextUnavailableStill200(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockTools(ctrl)
	tools.EXPECT().GetUserProfile(gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: connection refused"))
	tools.EXPECT().GetTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(scoring.TransactionList{}, errors.New("dial tcp: connection refused"))

	r, _ := newRouter(t, tools, scoring.Policy{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/fraud/score?user_id=u9&txn_id=t9&amount=12.50&merchant=Cafe&geo=FR", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp scoring.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, scoring.DecisionAllow, resp.Decision)
	assert.Equal(t, "amount=12.5", resp.Reasons[1])
	assert.True(t, resp.UserSummary.ProfileHasError)
	assert.Equal(t, 0, resp.UserSummary.RecentTxnCount)
}

func TestScoreHandler_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing user", "txn_id=t1&amount=1&merchant=X&geo=US", "user_id"},
		{"missing txn", "user_id=u1&amount=1&merchant=X&geo=US", "txn_id"},
		{"missing amount", "user_id=u1&txn_id=t1&merchant=X&geo=US", "amount"},
		{"non numeric amount", "user_id=u1&txn_id=t1&amount=lots&merchant=X&geo=US", "amount"},
		{"missing merchant", "user_id=u1&txn_id=t1&amount=1&geo=US", "merchant"},
		{"missing geo", "user_id=u1&txn_id=t1&amount=1&merchant=X", "geo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// No tool calls expected for a rejected request.
			r, _ := newRouter(t, mocks.NewMockTools(ctrl), scoring.Policy{})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("POST", "/fraud/score?"+tt.query, nil))

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body struct {
				Error   string `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "invalid_request", body.Error)
			assert.Contains(t, body.Message, tt.field)
		})
	}
}

func TestScoreHandler_LongMerchantAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockTools(ctrl)
	tools.EXPECT().GetUserProfile(gomock.Any(), "u1").Return(scoring.UserProfile{}, nil)
	tools.EXPECT().GetTransactions(gomock.Any(), "u1", gomock.Any()).Return(scoring.TransactionList{}, nil)

	r, _ := newRouter(t, tools, scoring.Policy{})

	q := url.Values{
		"user_id":  {"u1"},
		"txn_id":   {"t1"},
		"amount":   {"10"},
		"merchant": {strings.Repeat("M", 1500)},
		"geo":      {strings.Repeat("G", 1500)},
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/fraud/score?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
