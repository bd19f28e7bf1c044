package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
)

func TestObserve(t *testing.T) {
	m := New()
	p := nav.NewReactive(nav.DefaultReactiveParams())

	m.Observe(p, nav.StepResult{
		Speeds:     nav.WheelSpeeds{Left: -200, Right: -12},
		Transition: &nav.Transition{From: nav.StateDrive, To: nav.StateAvoid, Rule: "obstacle"},
	})
	m.Observe(p, nav.StepResult{Speeds: nav.Stopped, Unmapped: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("DRIVE", "AVOID", "obstacle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unmapped))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.wheelSpeed.WithLabelValues("left")))
}

func TestErrorAndDuration(t *testing.T) {
	m := New()
	m.Error("sensor")
	m.Error("sensor")
	m.Error("actuator")
	m.CycleDuration(15 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.errors.WithLabelValues("sensor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("actuator")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.cycleSeconds))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe(nav.NewReactive(nav.DefaultReactiveParams()), nav.StepResult{Speeds: nav.Both(200)})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "nav_cycles_total 1"), "missing cycle counter")
	assert.True(t, strings.Contains(text, `nav_wheel_speed_mm_per_second{wheel="right"} 200`), "missing wheel gauge")
}
