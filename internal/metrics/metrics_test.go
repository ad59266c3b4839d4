package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ExpenseCreated("EQUAL")
	m.ExpenseCreated("EQUAL")
	m.ExpenseCreated("EXACT")
	m.ExpenseRejected("SplitMismatch")
	m.ExpenseDeleted()
	m.ObserveHTTP(http.MethodPost, "/expenses", http.StatusCreated, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.expenses.WithLabelValues("EQUAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expenses.WithLabelValues("EXACT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("SplitMismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/expenses", "201")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ExpenseCreated("EQUAL")
		m.ExpenseRejected("x")
		m.ExpenseDeleted()
		m.SettlementComputed(3)
		m.LockWaited(time.Second)
		m.ObserveHTTP("GET", "/", 200, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SettlementComputed(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "grouppay_settlement_transfers_count 1"), body)
	assert.Contains(t, body, "go_goroutines")
}
