package config

import "testing"

func TestCompleteFillsDefaults(t *testing.T) {
	c, err := Config{}.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if c.TriggerMaxDepth != DefaultTriggerMaxDepth {
		t.Fatalf("expected default trigger depth %d, got %d", DefaultTriggerMaxDepth, c.TriggerMaxDepth)
	}
	if c.MaxConcurrency != 0 {
		t.Fatalf("expected default concurrency 0, got %d", c.MaxConcurrency)
	}
}

func TestCompletePreservesExplicitValues(t *testing.T) {
	c, err := Config{TriggerMaxDepth: 8, MaxConcurrency: 4}.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if c.TriggerMaxDepth != 8 {
		t.Fatalf("expected explicit trigger depth 8, got %d", c.TriggerMaxDepth)
	}
	if c.MaxConcurrency != 4 {
		t.Fatalf("expected explicit concurrency 4, got %d", c.MaxConcurrency)
	}
}

func TestCompleteClampsNegatives(t *testing.T) {
	c, err := Config{TriggerMaxDepth: -1, MaxConcurrency: -1, DefaultTimeout: -1}.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if c.TriggerMaxDepth != DefaultTriggerMaxDepth {
		t.Fatalf("expected negative trigger depth to fall back to default, got %d", c.TriggerMaxDepth)
	}
	if c.MaxConcurrency != 0 {
		t.Fatalf("expected negative concurrency to clamp to 0, got %d", c.MaxConcurrency)
	}
	if c.DefaultTimeout != 0 {
		t.Fatalf("expected negative timeout to clamp to 0, got %d", c.DefaultTimeout)
	}
}
