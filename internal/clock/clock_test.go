package clock

import (
	"testing"
	"time"
)

func TestNow_ReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	result := Now()
	after := time.Now()

	if result.Before(before) || result.After(after) {
		t.Errorf("Now() returned %v, expected between %v and %v", result, before, after)
	}
}

func TestMockClock_Advance(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	first := mock.Now()
	mock.Advance(time.Hour)

	if !mock.Now().Equal(mockTime.Add(time.Hour)) {
		t.Errorf("After Advance, Now() = %v", mock.Now())
	}
	if !first.Equal(mockTime) {
		t.Errorf("Before Advance, Now() = %v, expected %v", first, mockTime)
	}
}

func TestMockClock_SetAndSince(t *testing.T) {
	mock := NewMockClock(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))

	newTime := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	mock.Set(newTime)

	if !mock.Now().Equal(newTime) {
		t.Errorf("After Set, Now() = %v, expected %v", mock.Now(), newTime)
	}
	if got := mock.Since(newTime.Add(-time.Minute)); got != time.Minute {
		t.Errorf("Since() = %v, expected 1m", got)
	}
}

func TestOr(t *testing.T) {
	if Or(nil) != Real {
		t.Error("Or(nil) should return Real")
	}
	m := NewMockClock(time.Unix(0, 0))
	if Or(m) != Clock(m) {
		t.Error("Or should return the given clock")
	}
}

func TestRealClock_Since(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	result := Real.Since(past)

	if result < time.Hour-time.Second || result > time.Hour+time.Second {
		t.Errorf("Real.Since() = %v, expected approximately 1 hour", result)
	}
}
