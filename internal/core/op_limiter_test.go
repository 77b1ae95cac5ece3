package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestOpLimiter_TryAcquireRelease(t *testing.T) {
	limiter := NewOpLimiter(1)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if got := limiter.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount = %d, want 1", got)
	}
	if limiter.TryAcquire() {
		t.Fatal("second TryAcquire should fail while the slot is taken")
	}

	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after Release, ActiveCount = %d, want 0", got)
	}
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestOpLimiter_Defaults(t *testing.T) {
	limiter := NewOpLimiter(0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentOps {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentOps)
	}
}

func TestOpLimiter_ConcurrentTryAcquire(t *testing.T) {
	limiter := NewOpLimiter(1)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if limiter.TryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if admitted != 1 {
		t.Errorf("admitted = %d, want exactly 1", admitted)
	}
}

func TestOpLimiter_WaitForDrain(t *testing.T) {
	limiter := NewOpLimiter(1)
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain returned %v", err)
	}
	if !limiter.TryAcquire() {
		t.Error("limiter should be usable after draining")
	}
}

func TestOpLimiter_WaitForDrainCanceled(t *testing.T) {
	limiter := NewOpLimiter(1)
	limiter.TryAcquire()
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); err != context.DeadlineExceeded {
		t.Errorf("WaitForDrain = %v, want context.DeadlineExceeded", err)
	}
}

func TestOpLimiter_Status(t *testing.T) {
	limiter := NewOpLimiter(1)
	limiter.TryAcquire()

	st := limiter.Status()
	if st.Active != 1 || st.MaxConcurrent != 1 {
		t.Errorf("Status = %+v, want {1 1}", st)
	}
	limiter.Release()
}
