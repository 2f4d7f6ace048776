package security

import (
	"testing"
	"time"
)

func TestAttemptLimiter(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	l := NewAttemptLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("olga@camp.ru") {
			t.Fatalf("attempt %d blocked", i+1)
		}
		l.Fail("olga@camp.ru")
	}
	if l.Allow("OLGA@camp.ru ") {
		t.Error("fourth attempt allowed")
	}
	if !l.Allow("anna@camp.ru") {
		t.Error("other accounts must not be affected")
	}

	now = now.Add(time.Minute)
	if !l.Allow("olga@camp.ru") {
		t.Error("attempts not allowed again after the window")
	}
}

func TestAttemptLimiterReset(t *testing.T) {
	l := NewAttemptLimiter(1, time.Hour)
	l.Fail("olga@camp.ru")
	if l.Allow("olga@camp.ru") {
		t.Fatal("expected to be blocked")
	}
	l.Reset("olga@camp.ru")
	if !l.Allow("olga@camp.ru") {
		t.Error("Reset did not unblock")
	}
}

func TestNilAttemptLimiter(t *testing.T) {
	var l *AttemptLimiter
	l.Fail("x")
	l.Reset("x")
	if !l.Allow("x") {
		t.Error("nil limiter must allow")
	}
}
