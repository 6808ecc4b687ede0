package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := New(100, time.Minute)
	now := time.Now()

	for i := 0; i < 100; i++ {
		if res := l.Check("10.0.0.1", now); !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res := l.Check("10.0.0.1", now)
	if res.Allowed {
		t.Error("101st request in the same window should be rejected")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want in (0, 1m]", res.RetryAfter)
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Now()

	l.Check("10.0.0.1", now)
	l.Check("10.0.0.1", now)
	if res := l.Check("10.0.0.1", now); res.Allowed {
		t.Fatal("third request should be rejected")
	}

	// After the window elapses the counter starts fresh
	later := now.Add(time.Minute)
	if res := l.Check("10.0.0.1", later); !res.Allowed {
		t.Error("request in a new window should be allowed")
	}
}

func TestLimiter_IndependentAddresses(t *testing.T) {
	l := New(1, time.Minute)
	now := time.Now()

	if res := l.Check("10.0.0.1", now); !res.Allowed {
		t.Fatal("first address should be allowed")
	}
	if res := l.Check("10.0.0.2", now); !res.Allowed {
		t.Error("second address has its own window")
	}
	if res := l.Check("10.0.0.1", now); res.Allowed {
		t.Error("first address is over quota")
	}
}

func TestLimiter_SpreadAcrossWindows(t *testing.T) {
	l := New(100, time.Minute)
	now := time.Now()

	// 150 requests spread over three windows never exceed any single window
	for i := 0; i < 150; i++ {
		at := now.Add(time.Duration(i) * 1200 * time.Millisecond)
		if res := l.Check("10.0.0.1", at); !res.Allowed {
			t.Fatalf("request %d at %v should be allowed", i+1, at.Sub(now))
		}
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l := New(10, time.Minute)
	now := time.Now()

	l.Check("10.0.0.1", now)
	l.Check("10.0.0.2", now)
	l.Check("10.0.0.3", now.Add(30*time.Second))

	if got := l.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	removed := l.Sweep(now.Add(time.Minute))
	if removed != 2 {
		t.Errorf("Sweep() removed = %d, want 2", removed)
	}
	if got := l.Len(); got != 1 {
		t.Errorf("Len() after sweep = %d, want 1", got)
	}
}

func TestLimiter_DefaultParameters(t *testing.T) {
	l := New(0, 0)
	if l.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", l.Limit(), DefaultLimit)
	}
	if l.Window() != DefaultWindow {
		t.Errorf("Window() = %v, want %v", l.Window(), DefaultWindow)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(1000, time.Minute)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			addr := fmt.Sprintf("10.0.0.%d", n)
			for j := 0; j < 100; j++ {
				l.Check(addr, now)
			}
		}(i)
	}
	wg.Wait()

	if got := l.Len(); got != 10 {
		t.Errorf("Len() = %d, want 10", got)
	}
}
