package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("collabcare", reg)

	m.FlagsRaised.WithLabelValues("Safety Plan").Inc()
	m.FlagsRaised.WithLabelValues("Safety Plan").Inc()
	m.MinutesLogged.WithLabelValues("assessment").Add(45)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FlagsRaised.WithLabelValues("Safety Plan")))
	assert.Equal(t, float64(45), testutil.ToFloat64(m.MinutesLogged.WithLabelValues("assessment")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "collabcare_patient_flags_raised_total")
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop()
		NewNop()
	})
}
