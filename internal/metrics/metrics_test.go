package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveReportOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(reportsTotal.WithLabelValues(ReportSummary, OutcomeSuccess))
	errBefore := testutil.ToFloat64(reportsTotal.WithLabelValues(ReportSummary, OutcomeError))

	ObserveReport(ReportSummary, 10*time.Millisecond, nil)
	ObserveReport(ReportSummary, -time.Second, errors.New("store down"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(reportsTotal.WithLabelValues(ReportSummary, OutcomeSuccess)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(reportsTotal.WithLabelValues(ReportSummary, OutcomeError)))
}

func TestObserveRequestUnmatched(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	ObserveRequest("", "GET", 404)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}
