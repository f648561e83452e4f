package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstreamOutcomes(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.ObserveUpstream(ServiceSearch, 200*time.Millisecond, nil)
	c.ObserveUpstream(ServiceSearch, time.Second, errors.New("boom"))
	c.ObserveUpstream(ServiceGeneration, time.Second, nil)

	if got := testutil.ToFloat64(c.UpstreamRequests.WithLabelValues(ServiceSearch, "ok")); got != 1 {
		t.Errorf("expected 1 ok search, got %v", got)
	}
	if got := testutil.ToFloat64(c.UpstreamRequests.WithLabelValues(ServiceSearch, "error")); got != 1 {
		t.Errorf("expected 1 failed search, got %v", got)
	}
	if got := testutil.ToFloat64(c.UpstreamRequests.WithLabelValues(ServiceGeneration, "ok")); got != 1 {
		t.Errorf("expected 1 ok generation, got %v", got)
	}
}

func TestRunsAndReferences(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.RunFinished("completed")
	c.AddReferences(3)
	c.AddReferences(0)
	c.AddTokens(10, 5)

	if got := testutil.ToFloat64(c.Runs.WithLabelValues("completed")); got != 1 {
		t.Errorf("expected 1 completed run, got %v", got)
	}
	if got := testutil.ToFloat64(c.References); got != 3 {
		t.Errorf("expected 3 references, got %v", got)
	}
	if got := testutil.ToFloat64(c.Tokens.WithLabelValues("completion")); got != 5 {
		t.Errorf("expected 5 completion tokens, got %v", got)
	}
}

func TestNilCollectorsAreNoOps(t *testing.T) {
	var c *Collectors
	c.ObserveUpstream(ServiceSearch, time.Second, nil)
	c.RunFinished("failed")
	c.AddReferences(2)
	c.AddTokens(1, 1)
}
