package auth

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter() (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(5, 15*time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func fail(rl *RateLimiter, client string, n int) {
	for i := 0; i < n; i++ {
		rl.RecordFailure(client)
	}
}

func TestAllow_NoHistory(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 20; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("check %d: checks alone must not lock a client out", i+1)
		}
	}
}

func TestAllow_UnderLimit(t *testing.T) {
	rl, _ := newTestLimiter()

	fail(rl, "1.2.3.4", 4)

	ok, retry := rl.Allow("1.2.3.4")
	if !ok {
		t.Fatalf("expected allowed after 4 failures, got blocked (retryAfter=%s)", retry)
	}
}

func TestAllow_ExceedsLimit(t *testing.T) {
	rl, _ := newTestLimiter()

	fail(rl, "1.2.3.4", 5)

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("expected blocked after 5 failures")
	}
	if retry != 15*time.Minute {
		t.Fatalf("expected retryAfter=15m, got %s", retry)
	}
}

func TestAllow_RetryAfterDecreases(t *testing.T) {
	rl, now := newTestLimiter()

	fail(rl, "1.2.3.4", 5)

	// Advance 10m into the 15-minute window.
	*now = now.Add(10 * time.Minute)

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("expected blocked")
	}
	if retry != 5*time.Minute {
		t.Fatalf("expected retryAfter=5m, got %s", retry)
	}
}

func TestAllow_WindowMeasuredFromFirstFailure(t *testing.T) {
	rl, now := newTestLimiter()

	rl.RecordFailure("1.2.3.4")
	*now = now.Add(14 * time.Minute)
	fail(rl, "1.2.3.4", 4)

	if ok, _ := rl.Allow("1.2.3.4"); ok {
		t.Fatal("expected blocked within window")
	}

	// 15 minutes after the first failure the whole streak expires, even though
	// the later failures are only a minute old.
	*now = now.Add(time.Minute)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("expected allowed once the streak's window expired")
	}
	if got := rl.Failures("1.2.3.4"); got != 0 {
		t.Fatalf("expected 0 failures after expiry, got %d", got)
	}
}

func TestAllow_WindowResets(t *testing.T) {
	rl, now := newTestLimiter()

	fail(rl, "1.2.3.4", 5)

	*now = now.Add(15*time.Minute + time.Second)

	ok, _ := rl.Allow("1.2.3.4")
	if !ok {
		t.Fatal("expected allowed after window reset")
	}
}

func TestRecordFailure_ExpiredWindowStartsFresh(t *testing.T) {
	rl, now := newTestLimiter()

	fail(rl, "1.2.3.4", 4)
	*now = now.Add(16 * time.Minute)
	rl.RecordFailure("1.2.3.4")

	if got := rl.Failures("1.2.3.4"); got != 1 {
		t.Fatalf("expected a fresh streak of 1, got %d", got)
	}
}

func TestClear(t *testing.T) {
	rl, _ := newTestLimiter()

	fail(rl, "1.2.3.4", 5)

	rl.Clear("1.2.3.4")

	ok, _ := rl.Allow("1.2.3.4")
	if !ok {
		t.Fatal("expected allowed after clear")
	}
	if got := rl.Failures("1.2.3.4"); got != 0 {
		t.Fatalf("expected 0 failures after clear, got %d", got)
	}
}

func TestAllow_DifferentClients(t *testing.T) {
	rl, _ := newTestLimiter()

	fail(rl, "1.2.3.4", 5)

	ok, _ := rl.Allow("5.6.7.8")
	if !ok {
		t.Fatal("different client should not be affected")
	}
}

func TestEmptyClientSharesUnknownBucket(t *testing.T) {
	rl, _ := newTestLimiter()

	fail(rl, "", 5)

	if ok, _ := rl.Allow(UnknownClient); ok {
		t.Fatal("empty identifier should count against the unknown bucket")
	}
}

func TestSweep_StaleEntries(t *testing.T) {
	rl, now := newTestLimiter()

	rl.RecordFailure("old-ip")
	*now = now.Add(10 * time.Minute)
	rl.RecordFailure("recent-ip")

	*now = now.Add(6 * time.Minute)

	if removed := rl.Sweep(); removed != 1 {
		t.Fatalf("expected 1 stale record removed, got %d", removed)
	}

	rl.mu.Lock()
	_, oldExists := rl.records["old-ip"]
	_, recentExists := rl.records["recent-ip"]
	rl.mu.Unlock()

	if oldExists {
		t.Fatal("stale entry should have been swept")
	}
	if !recentExists {
		t.Fatal("active entry should survive the sweep")
	}
}

func TestSweep_OpportunisticOnAccess(t *testing.T) {
	rl, now := newTestLimiter()

	rl.RecordFailure("old-ip")
	*now = now.Add(20 * time.Minute)

	// Trigger cleanup via a call for another client.
	rl.Allow("new-ip")

	if n := rl.Len(); n != 0 {
		t.Fatalf("expected stale entry purged on access, %d left", n)
	}
}

func TestRecordFailure_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.Allow("1.2.3.4")
			rl.RecordFailure("1.2.3.4")
		}()
	}
	wg.Wait()

	// Every concurrent failure must be counted.
	if got := rl.Failures("1.2.3.4"); got != 50 {
		t.Fatalf("expected 50 failures, got %d", got)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.maxAttempts != DefaultMaxAttempts {
		t.Errorf("maxAttempts = %d, want %d", rl.maxAttempts, DefaultMaxAttempts)
	}
	if rl.window != DefaultLockoutWindow {
		t.Errorf("window = %s, want %s", rl.window, DefaultLockoutWindow)
	}
}

func TestBegin_CountsAttempt(t *testing.T) {
	rl, now := newTestLimiter()

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Begin("1.2.3.4"); !ok {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}
	if got := rl.Failures("1.2.3.4"); got != 5 {
		t.Fatalf("expected 5 reserved attempts, got %d", got)
	}

	ok, retry := rl.Begin("1.2.3.4")
	if ok || retry != 15*time.Minute {
		t.Fatalf("expected blocked with 15m retry, got ok=%v retry=%s", ok, retry)
	}
	if got := rl.Failures("1.2.3.4"); got != 5 {
		t.Fatalf("blocked attempts must not be counted, got %d", got)
	}

	*now = now.Add(15 * time.Minute)
	if ok, _ := rl.Begin("1.2.3.4"); !ok {
		t.Fatal("expected a fresh window after expiry")
	}
	if got := rl.Failures("1.2.3.4"); got != 1 {
		t.Fatalf("expected fresh streak of 1, got %d", got)
	}
}

func TestBegin_ConcurrentAtLastSlot(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	fail(rl, "1.2.3.4", 4)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	start := make(chan struct{})
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if ok, _ := rl.Begin("1.2.3.4"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if allowed != 1 {
		t.Fatalf("expected exactly 1 attempt through the last slot, got %d", allowed)
	}
}
