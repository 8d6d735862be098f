package transport

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestGaugeValueReadsCurrentValue(t *testing.T) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge"})
	g.Set(3.5)

	assert.Equal(t, 3.5, gaugeValue(g))

	g.Set(0)
	assert.Equal(t, 0.0, gaugeValue(g))
}
