package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMessageIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(messagesGenerated.WithLabelValues("TEST", "NewOrderSingle"))
	RecordMessage("TEST", "NewOrderSingle")
	after := testutil.ToFloat64(messagesGenerated.WithLabelValues("TEST", "NewOrderSingle"))
	if after != before+1 {
		t.Fatalf("counter = %v, want %v", after, before+1)
	}
}

func TestSetRegistrySizeSetsGauge(t *testing.T) {
	SetRegistrySize("TEST", 42)
	if got := testutil.ToFloat64(registrySize.WithLabelValues("TEST")); got != 42 {
		t.Fatalf("gauge = %v, want 42", got)
	}
}

func TestRecordPhaseTransitionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(phaseTransitions.WithLabelValues("TEST", "Open"))
	RecordPhaseTransition("TEST", "Open")
	after := testutil.ToFloat64(phaseTransitions.WithLabelValues("TEST", "Open"))
	if after != before+1 {
		t.Fatalf("counter = %v, want %v", after, before+1)
	}
}
