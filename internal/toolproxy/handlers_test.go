package toolproxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/pagination"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu    sync.Mutex
	flags []map[string]interface{}
}

func (n *recordingNotifier) BroadcastFlagged(flag map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flags = append(n.flags, flag)
}

type failingStore struct{}

func (failingStore) Ping(context.Context) error {
	return ErrStoreUnavailable
}

func (failingStore) Record(context.Context, *FlaggedTransaction) error {
	return ErrStoreUnavailable
}

func (failingStore) List(context.Context, int, *pagination.Cursor) ([]*FlaggedTransaction, error) {
	return nil, ErrStoreUnavailable
}

type testEnv struct {
	router   *gin.Engine
	service  *Service
	notifier *recordingNotifier
}

// newTestEnv wires a tool proxy to an upstream stub serving both services.
func newTestEnv(t *testing.T, upstream http.HandlerFunc, store Store) *testEnv {
	t.Helper()
	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	notifier := &recordingNotifier{}
	svc, err := NewService(NewUpstream(ts.URL, ts.URL, time.Second), store,
		WithNotifier(notifier),
		WithLogger(logging.Discard()),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return &testEnv{router: r, service: svc, notifier: notifier}
}

func (e *testEnv) do(method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func okUpstream(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/users/u1":
		_, _ = w.Write([]byte(`{"id":"u1","name":"Ada"}`))
	case "/transactions":
		_, _ = w.Write([]byte(`[{"amount":10},{"amount":20},{"amount":30}]`))
	default:
		http.NotFound(w, r)
	}
}

func failingUpstream(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusInternalServerError)
}

func TestNewService_RequiresUpstream(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)
}

func TestNewService_DefaultLoggerIsSilent(t *testing.T) {
	svc, err := NewService(NewUpstream("http://x", "http://x", time.Second), nil)
	require.NoError(t, err)
	require.NotNil(t, svc.logger)
	assert.NotSame(t, slog.Default(), svc.logger)
}

func TestGetUserProfile_Passthrough(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	w := env.do("GET", "/tools/getUserProfile?user_id=u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","name":"Ada"}`, w.Body.String())
}

func TestGetUserProfile_Upstream500ReturnsPlaceholder(t *testing.T) {
	env := newTestEnv(t, failingUpstream, nil)
	before := testutil.ToFloat64(upstreamFallbacks.WithLabelValues(ToolGetUserProfile, string(ClassStatus)))

	w := env.do("GET", "/tools/getUserProfile?user_id=u7")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u7", body["id"])
	assert.Equal(t, "Demo User", body["name"])
	assert.Equal(t, "demo.user@example.com", body["email"])
	assert.Equal(t, "upstream_status: HTTP 500", body["error"])

	after := testutil.ToFloat64(upstreamFallbacks.WithLabelValues(ToolGetUserProfile, string(ClassStatus)))
	assert.Equal(t, before+1, after)
}

func TestGetUserProfile_MissingUserID(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	w := env.do("GET", "/tools/getUserProfile")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user_id")
}

func TestGetTransactions_Passthrough(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	w := env.do("GET", "/tools/getTransactions?user_id=u1&limit=50")
	require.Equal(t, http.StatusOK, w.Code)

	var list TransactionList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Items, 3)
	assert.Empty(t, list.Error)
}

func TestGetTransactions_DefaultLimit(t *testing.T) {
	var gotLimit string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[]`))
	}, nil)

	w := env.do("GET", "/tools/getTransactions?user_id=u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "25", gotLimit)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestGetTransactions_UpstreamFailureReturnsCannedRecords(t *testing.T) {
	env := newTestEnv(t, failingUpstream, nil)

	w := env.do("GET", "/tools/getTransactions?user_id=u1&limit=5")
	require.Equal(t, http.StatusOK, w.Code)

	var list TransactionList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Items, 2)
	assert.Equal(t, "upstream_status: HTTP 500", list.Error)
}

func TestGetTransactions_BadLimit(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	w := env.do("GET", "/tools/getTransactions?user_id=u1&limit=many")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "limit: must be an integer")
}

func TestFlagTransaction_RecordsAndBroadcasts(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)
	before := testutil.ToFloat64(flaggedTotal)

	w := env.do("POST", "/tools/flagTransaction?txn_id=t1&reason=REVIEW+via+heuristic")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"txn_id":"t1","flagged":true,"reason":"REVIEW via heuristic"}`, w.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(flaggedTotal))

	page, err := env.service.ListFlagged(context.Background(), 0, "")
	require.NoError(t, err)
	flags := page.Items
	require.Len(t, flags, 1)
	assert.Equal(t, "t1", flags[0].TxnID)
	assert.Equal(t, FlagPending, flags[0].Status)
	assert.Regexp(t, `^flag_[0-9a-f]{24}$`, flags[0].ID)

	require.Len(t, env.notifier.flags, 1)
	assert.Equal(t, "t1", env.notifier.flags[0]["txn_id"])
	assert.Equal(t, flags[0].ID, env.notifier.flags[0]["id"])
}

func TestFlagTransaction_MissingParams(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	for _, q := range []string{"", "?txn_id=t1", "?reason=x"} {
		w := env.do("POST", "/tools/flagTransaction"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", q)
	}
	assert.Empty(t, env.notifier.flags)
}

func TestFlagTransaction_StoreFailure(t *testing.T) {
	env := newTestEnv(t, okUpstream, failingStore{})

	w := env.do("POST", "/tools/flagTransaction?txn_id=t1&reason=x")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, env.notifier.flags)
}

type flaggedBody struct {
	Flagged    []FlaggedTransaction `json:"flagged"`
	Count      int                  `json:"count"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

func TestListFlagged_Paginates(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)
	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := env.service.FlagTransaction(context.Background(), id, "DECLINE via vertex")
		require.NoError(t, err)
	}

	var seen []string
	cursor := ""
	for page := 0; page < 3; page++ {
		w := env.do("GET", "/tools/flagged?limit=2&cursor="+cursor)
		require.Equal(t, http.StatusOK, w.Code)

		var body flaggedBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, len(body.Flagged), body.Count)
		for _, f := range body.Flagged {
			seen = append(seen, f.TxnID)
		}
		if !body.HasMore {
			break
		}
		cursor = body.NextCursor
	}

	// Same clock instant for every flag, so order falls back to id.
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, seen)
	assert.Len(t, seen, 3)
}

func TestListFlagged_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	w := env.do("GET", "/tools/flagged")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flagged":[],"count":0,"next_cursor":"","has_more":false}`, w.Body.String())
}

func TestListFlagged_InvalidCursor(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)

	w := env.do("GET", "/tools/flagged?cursor=garbage!!")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cursor")
}

func TestListFlagged_StoreFailure(t *testing.T) {
	env := newTestEnv(t, okUpstream, failingStore{})

	w := env.do("GET", "/tools/flagged")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestIdentifiers_TooLongRejected(t *testing.T) {
	var upstreamCalls atomic.Int32
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		okUpstream(w, r)
	}, nil)
	long := strings.Repeat("u", 200)

	tests := []struct {
		method, target, field string
	}{
		{"GET", "/tools/getUserProfile?user_id=" + long, "user_id"},
		{"GET", "/tools/getTransactions?user_id=" + long, "user_id"},
		{"POST", "/tools/flagTransaction?reason=x&txn_id=" + long, "txn_id"},
	}
	for _, tt := range tests {
		w := env.do(tt.method, tt.target)
		require.Equal(t, http.StatusBadRequest, w.Code, tt.target)
		assert.Contains(t, w.Body.String(), tt.field+": exceeds maximum length")
	}

	assert.EqualValues(t, 0, upstreamCalls.Load())
	assert.Empty(t, env.notifier.flags)
}

func TestFlagTransaction_LongReasonKeepsValidUTF8(t *testing.T) {
	env := newTestEnv(t, okUpstream, nil)
	reason := strings.Repeat("x", 999) + "é"

	w := env.do("POST", "/tools/flagTransaction?txn_id=t1&reason="+url.QueryEscape(reason))
	require.Equal(t, http.StatusOK, w.Code)

	page, err := env.service.ListFlagged(context.Background(), 0, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	stored := page.Items[0].Reason
	assert.True(t, utf8.ValidString(stored))
	assert.Equal(t, strings.Repeat("x", 999), stored)
}
