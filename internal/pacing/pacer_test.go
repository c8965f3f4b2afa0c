package pacing

import (
	"context"
	"testing"
	"time"
)

func TestWait_AllowsBurstThenBlocks(t *testing.T) {
	p := New(1, 2) // 1/sec, burst of 2
	defer p.Stop()

	ctx := t.Context()
	for i := 0; i < 2; i++ {
		if err := p.Wait(ctx, "tenant-1"); err != nil {
			t.Fatalf("request %d within burst should be allowed, got %v", i+1, err)
		}
	}

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(shortCtx, "tenant-1"); err == nil {
		t.Error("expected the 3rd request to exceed the burst and block past the short deadline")
	}
}

func TestWait_TenantsAreIndependent(t *testing.T) {
	p := New(1, 1)
	defer p.Stop()

	ctx := t.Context()
	if err := p.Wait(ctx, "tenant-a"); err != nil {
		t.Fatalf("expected tenant-a's first request to be allowed, got %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(shortCtx, "tenant-a"); err == nil {
		t.Error("expected tenant-a's burst to be exhausted")
	}

	if err := p.Wait(ctx, "tenant-b"); err != nil {
		t.Errorf("expected tenant-b to have its own independent burst allowance, got %v", err)
	}
}
