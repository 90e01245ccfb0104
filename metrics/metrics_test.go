package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teco-project/teco-go/metrics"
)

func TestMetrics(t *testing.T) {
	tests := []struct {
		name       string
		addMetrics func(*metrics.Metrics)
		expMetrics []string
	}{
		{
			name: "counting requests partitions by service and action",
			addMetrics: func(m *metrics.Metrics) {
				m.IncRequests("cvm", "DescribeInstances")
				m.IncRequests("cvm", "DescribeInstances")
				m.IncRequests("region", "DescribeRegions")
			},
			expMetrics: []string{
				`tc_requests_total{tc_action="DescribeInstances",tc_service="cvm"} 2`,
				`tc_requests_total{tc_action="DescribeRegions",tc_service="region"} 1`,
			},
		},
		{
			name: "counting request errors",
			addMetrics: func(m *metrics.Metrics) {
				m.IncRequestErrors("cvm", "DescribeInstances")
			},
			expMetrics: []string{
				`tc_request_errors{tc_action="DescribeInstances",tc_service="cvm"} 1`,
			},
		},
		{
			name: "measuring a request records one duration sample",
			addMetrics: func(m *metrics.Metrics) {
				m.MeasureRequest("cvm", "DescribeInstances", time.Now().Add(-time.Millisecond))
			},
			expMetrics: []string{
				`tc_request_duration_seconds_count{tc_action="DescribeInstances",tc_service="cvm"} 1`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := prometheus.NewRegistry()
			m := metrics.New(metrics.Options{Registerer: registry})
			tt.addMetrics(m)

			server := httptest.NewServer(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			defer server.Close()

			resp, err := http.Get(server.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			for _, exp := range tt.expMetrics {
				assert.Contains(t, string(body), exp)
			}
		})
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *metrics.Metrics

	m.IncRequests("cvm", "DescribeInstances")
	m.IncRequestErrors("cvm", "DescribeInstances")
	m.MeasureRequest("cvm", "DescribeInstances", time.Now())
}

func TestMetricsDefaultShared(t *testing.T) {
	assert.Same(t, metrics.Default(), metrics.Default())
}
