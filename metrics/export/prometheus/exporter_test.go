package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	portal "github.com/miniapp-agency/portal"
)

type fakeSource struct {
	snapshot portal.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() portal.MetricsSnapshot { return f.snapshot }
func (f fakeSource) NotifyDropped() uint64                   { return f.dropped }

func disabled() fakeSource {
	return fakeSource{snapshot: portal.MetricsSnapshot{
		Counters:   map[portal.MetricID]uint64{},
		Histograms: map[portal.MetricID][]uint64{},
	}}
}

func TestCollectDisabledYieldsOnlyDropped(t *testing.T) {
	require.Equal(t, 1, testutil.CollectAndCount(NewCollector(disabled())))
}

func TestCollectCountersAndHistogram(t *testing.T) {
	src := fakeSource{
		snapshot: portal.MetricsSnapshot{
			Counters: map[portal.MetricID]uint64{
				portal.MetricLoginSuccess: 7,
				portal.MetricLogout:       2,
			},
			Histograms: map[portal.MetricID][]uint64{
				portal.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 3,
	}
	c := NewCollector(src)

	expected := `
# HELP portal_login_success_total Accepted credential submissions.
# TYPE portal_login_success_total counter
portal_login_success_total 7
# HELP portal_notify_dropped_total Notifications dropped due to dispatcher backpressure.
# TYPE portal_notify_dropped_total counter
portal_notify_dropped_total 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"portal_login_success_total", "portal_notify_dropped_total"))

	require.Equal(t, 4, testutil.CollectAndCount(c))
}

func TestHandlerServesTextFormat(t *testing.T) {
	src := fakeSource{
		snapshot: portal.MetricsSnapshot{
			Counters: map[portal.MetricID]uint64{portal.MetricCodeCheckSuccess: 1},
			Histograms: map[portal.MetricID][]uint64{
				portal.MetricRequestLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
	}

	rec := httptest.NewRecorder()
	Handler(src).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	require.Contains(t, out, "portal_code_check_success_total 1")
	require.Contains(t, out, `portal_request_latency_seconds_bucket{le="0.05"} 1`)
	require.Contains(t, out, `portal_request_latency_seconds_bucket{le="+Inf"} 8`)
	require.Contains(t, out, "portal_request_latency_seconds_count 8")
}

func TestCollectorAgainstEngine(t *testing.T) {
	e, err := portal.New().WithBaseURL("http://localhost:1").Build()
	require.NoError(t, err)
	defer e.Close()

	// 16 counters plus the dropped counter; latency histograms are off by
	// default.
	require.Equal(t, 17, testutil.CollectAndCount(NewCollector(e)))
}
