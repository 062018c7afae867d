package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSlidingWindow_LimitAndRecovery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		if !l.Allow("login_10.0.0.1", now.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("login_10.0.0.1", now.Add(6*time.Second)) {
		t.Fatalf("sixth attempt within window should be denied")
	}

	// A different key is unaffected.
	if !l.Allow("login_10.0.0.2", now.Add(6*time.Second)) {
		t.Fatalf("other key should be allowed")
	}

	// Once the oldest attempt ages out, a slot frees up.
	later := now.Add(15*time.Minute + time.Second)
	if !l.Allow("login_10.0.0.1", later) {
		t.Fatalf("attempt after window elapse should be allowed")
	}
}

func TestSlidingWindow_RejectionNotRecorded(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(2, time.Minute)

	if !l.Allow("k", now) || !l.Allow("k", now) {
		t.Fatalf("first two attempts should be allowed")
	}
	for i := 0; i < 10; i++ {
		if l.Allow("k", now.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("attempt over limit should be denied")
		}
	}

	// Denied attempts must not extend the lockout: once the two recorded
	// attempts age out, admission resumes.
	if !l.Allow("k", now.Add(61*time.Second)) {
		t.Fatalf("expected admission after recorded attempts aged out")
	}
}

func TestSlidingWindow_DefaultsOnInvalidInput(t *testing.T) {
	l := NewSlidingWindow(0, 0)
	now := time.Now().UTC()

	for i := 0; i < defaultLimit; i++ {
		if !l.Allow("k", now) {
			t.Fatalf("attempt %d should be allowed under defaults", i+1)
		}
	}
	if l.Allow("k", now) {
		t.Fatalf("attempt over default limit should be denied")
	}
}

func TestSlidingWindow_ConcurrentSingleSlot(t *testing.T) {
	now := time.Now().UTC()
	l := NewSlidingWindow(1, time.Minute)

	var wg sync.WaitGroup
	admitted := make(chan struct{}, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("k", now) {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	n := 0
	for range admitted {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly one admission, got %d", n)
	}
}

func TestSlidingWindow_Prune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(5, time.Minute)

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("key_%d", i), now)
	}
	l.Allow("live", now.Add(50*time.Second))

	l.Prune(now.Add(61 * time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) != 1 {
		t.Fatalf("expected one live key after prune, got %d", len(l.events))
	}
	if _, ok := l.events["live"]; !ok {
		t.Fatalf("live key pruned")
	}
}
