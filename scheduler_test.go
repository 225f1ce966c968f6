package main

import (
	"testing"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler("not a cron spec", func() {}); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestNewScheduler_ValidSpec(t *testing.T) {
	s, err := NewScheduler("0 7 * * 6", func() {})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	s.Start(false)
	s.Stop()
}

func TestScheduler_RunOnStart(t *testing.T) {
	ran := false
	s, err := NewScheduler("0 7 * * 6", func() { ran = true })
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	s.Start(true)
	defer s.Stop()

	if !ran {
		t.Error("expected job to run immediately with runOnStart")
	}
}
