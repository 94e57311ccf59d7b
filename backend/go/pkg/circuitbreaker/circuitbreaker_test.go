package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fail() (interface{}, error)    { return nil, errBoom }
func succeed() (interface{}, error) { return "ok", nil }

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("Expected the operation error on attempt %d, got %v", i+1, err)
		}
	}

	if cb.State() != Open {
		t.Fatalf("Expected state Open after consecutive failures, got %s", cb.State())
	}
	if _, err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen while tripped, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Minute)

	cb.Execute(fail)
	cb.Execute(succeed)
	cb.Execute(fail)

	if cb.State() != Closed {
		t.Errorf("Expected state Closed, a success must reset the failure streak, got %s", cb.State())
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.Execute(fail)
	if cb.State() != Open {
		t.Fatalf("Expected state Open, got %s", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// Two trial successes close the circuit again.
	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(succeed); err != nil {
			t.Fatalf("Expected trial request %d allowed, got %v", i+1, err)
		}
	}
	if cb.State() != Closed {
		t.Errorf("Expected state Closed after recovery, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)

	if _, err := cb.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("Expected the trial request executed, got %v", err)
	}
	if cb.State() != Open {
		t.Errorf("Expected a half-open failure to reopen the circuit, got %s", cb.State())
	}
}
