package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failure")

func fail() error { return errUpstream }
func ok() error   { return nil }

func TestNew(t *testing.T) {
	cb := New(Config{Name: "tmdb", MaxFailures: 3})

	if cb.State() != StateClosed {
		t.Errorf("expected state Closed, got %s", cb.State())
	}
	if cb.Name() != "tmdb" {
		t.Errorf("expected name 'tmdb', got %s", cb.Name())
	}
	if cb.cfg.MaxHalfOpenRequests != 1 {
		t.Errorf("expected MaxHalfOpenRequests defaulted to 1, got %d", cb.cfg.MaxHalfOpenRequests)
	}
}

func TestExecute_PassesThroughResult(t *testing.T) {
	cb := New(DefaultConfig())

	if err := cb.Execute(ok); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := cb.Execute(fail); err != errUpstream {
		t.Errorf("expected upstream error, got %v", err)
	}
	if cb.Failures() != 1 {
		t.Errorf("expected 1 failure, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := New(Config{MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		cb.Execute(fail)
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected state Open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	if err != ErrOpenState {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if called {
		t.Error("function must not run while open")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := New(Config{MaxFailures: 3, Timeout: time.Minute})

	cb.Execute(fail)
	cb.Execute(fail)
	cb.Execute(ok)
	cb.Execute(fail)

	if cb.State() != StateClosed {
		t.Errorf("expected state Closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(ok); err != nil {
		t.Fatalf("expected half-open probe to run, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected state Closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)
	cb.Execute(fail)

	if cb.State() != StateOpen {
		t.Errorf("expected state Open after failed probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_TooManyHalfOpenRequests(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond, MaxHalfOpenRequests: 1})

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)

	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error {
			<-release
			return nil
		})
	}()

	// wait for the probe to occupy the half-open slot
	deadline := time.Now().Add(time.Second)
	for cb.State() != StateHalfOpen && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := cb.Execute(ok); err != ErrTooManyRequests {
		t.Errorf("expected ErrTooManyRequests, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("expected probe to succeed, got %v", err)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := New(Config{
		Name:        "paypal",
		MaxFailures: 1,
		Timeout:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)
	cb.Execute(ok)

	want := []string{
		"paypal:closed->open",
		"paypal:open->half-open",
		"paypal:half-open->closed",
	}
	if len(transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: time.Minute})
	cb.Execute(fail)

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("expected state Closed, got %s", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("expected 0 failures, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_CustomIsSuccessful(t *testing.T) {
	notFound := errors.New("not found")
	cb := New(Config{
		MaxFailures: 1,
		Timeout:     time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || err == notFound
		},
	})

	cb.Execute(func() error { return notFound })

	if cb.State() != StateClosed {
		t.Errorf("expected absence to not trip the breaker, got %s", cb.State())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(99):     "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %s, want %s", s, s.String(), want)
		}
	}
}
