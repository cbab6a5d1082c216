package scheduler

import (
	"testing"
	"time"
)

func TestIntervalSchedule(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Every(1 * time.Hour)
	next := s.Next(now)
	if !next.Equal(now.Add(1 * time.Hour)) {
		t.Errorf("Expected %v, got %v", now.Add(1*time.Hour), next)
	}
}

func TestCronSchedule_Parsing(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"*/5 * * * *", false},
		{"0 0 1 1 *", false},
		{"* * * *", true},        // too short
		{"* * * * * *", true},    // too long
		{"60 * * * *", true},     // invalid minute
		{"* 24 * * *", true},     // invalid hour
		{"a * * * *", true},      // invalid char
		{"1-5 * * * *", false},   // range
		{"1,2,3 * * * *", false}, // list
	}

	for _, tt := range tests {
		_, err := Cron(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("Cron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestCronSchedule_Next(t *testing.T) {
	// 2025-01-01 10:00:00 (Wed)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		// Every minute (next minute)
		{"* * * * *", now.Add(1 * time.Minute)},
		// At minute 30
		{"30 * * * *", time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)},
		// Next hour
		{"0 * * * *", time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)},
		// At 2PM
		{"0 14 * * *", time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)},
		// Tomorrow 8AM
		{"0 8 * * *", time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)},
		// Specific date (Feb 1st)
		{"0 0 1 2 *", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		// Specific weekday (Friday)
		{"0 12 * * 5", time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		s, err := Cron(tt.expr)
		if err != nil {
			t.Errorf("Cron(%q) failed: %v", tt.expr, err)
			continue
		}
		got := s.Next(now)
		if !got.Equal(tt.want) {
			t.Errorf("Cron(%q).Next() = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 17, 0, 0, time.UTC)

	s, err := Parse("", 12*time.Hour)
	if err != nil {
		t.Fatalf("Parse interval failed: %v", err)
	}
	if got := s.Next(now); !got.Equal(now.Add(12 * time.Hour)) {
		t.Errorf("Expected %v, got %v", now.Add(12*time.Hour), got)
	}

	s, err = Parse("0 */6 * * *", 12*time.Hour)
	if err != nil {
		t.Fatalf("Parse cron failed: %v", err)
	}
	expected := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	if _, err := Parse("", 0); err == nil {
		t.Error("Expected error for zero interval")
	}
	if _, err := Parse("61 * * * *", time.Hour); err == nil {
		t.Error("Expected error for invalid cron")
	}
}
