package domain

import (
	"testing"
	"time"
)

func TestJourneyDurationOvernightWrap(t *testing.T) {
	d, err := JourneyDuration("22:00", "06:00", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 8*time.Hour {
		t.Fatalf("expected 8h, got %v", d)
	}
}

func TestJourneyDurationWithDayOffset(t *testing.T) {
	d, err := JourneyDuration("20:00", "21:00", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 25*time.Hour {
		t.Fatalf("expected 25h, got %v", d)
	}
}

func TestValidateJourneyBounds(t *testing.T) {
	if _, err := ValidateJourney("10:00", "10:20", 0); !IsValidation(err) {
		t.Fatalf("expected too-short journey to fail, got %v", err)
	}
	if _, err := ValidateJourney("10:00", "10:30", 0); err != nil {
		t.Fatalf("30 minutes should be accepted, got %v", err)
	}
	if _, err := ValidateJourney("20:00", "21:00", 1); !IsValidation(err) {
		t.Fatalf("expected journey over 24h to fail, got %v", err)
	}
	if _, err := ValidateJourney("10:00", "10:00", 0); !IsValidation(err) {
		t.Fatalf("expected zero-length journey to fail, got %v", err)
	}
	if _, err := ValidateJourney("25:00", "10:00", 0); !IsValidation(err) {
		t.Fatalf("expected bad clock to fail, got %v", err)
	}
}

func TestParseClockAcceptsSeconds(t *testing.T) {
	d, err := ParseClock("07:45:00")
	if err != nil || d != 7*time.Hour+45*time.Minute {
		t.Fatalf("unexpected result %v %v", d, err)
	}
}

func TestDepartureAt(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)
	at, err := DepartureAt(date, "21:15", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if at.Hour() != 21 || at.Minute() != 15 || at.Day() != 1 {
		t.Fatalf("unexpected departure %v", at)
	}
}

