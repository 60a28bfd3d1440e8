package middleware

import (
	"testing"
	"time"
)

func TestSlidingWindowLimiter(t *testing.T) {
	limiter := NewSlidingWindowLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d denied below the limit", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("request allowed above the limit")
	}
	// A different key has its own window.
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("second key denied")
	}

	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("request denied after the window rolled")
	}
}
