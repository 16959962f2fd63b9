package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordScan("premarket")
	r.RecordScan("premarket")
	r.RecordReject("no_bias")
	r.RecordNotify("entries", "ok")
	r.RecordLastPrice("SPY", 512.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.scans.WithLabelValues("premarket")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejects.WithLabelValues("no_bias")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifies.WithLabelValues("entries", "ok")))
	assert.Equal(t, 512.25, testutil.ToFloat64(r.lastPrice.WithLabelValues("SPY")))
}
