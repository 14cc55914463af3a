// ABOUTME: Tests for core data model helpers
// ABOUTME: Covers fingerprints, retry ceiling checks, and event tag validity
package models

import (
	"testing"
	"time"
)

func TestMealPayloadFingerprint(t *testing.T) {
	a := MealPayload{Description: "chicken and rice", Calories: 450, Date: "2026-08-30"}
	b := MealPayload{Description: "chicken and rice", Calories: 450, Date: "2026-08-30", Protein: 40}
	c := MealPayload{Description: "chicken and rice", Calories: 500, Date: "2026-08-30"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("macro detail fields should not change the fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different calories should change the fingerprint")
	}
}

func TestCanRetry(t *testing.T) {
	m := &QueuedMutation{RetryCount: 2}
	if !m.CanRetry(3) {
		t.Error("retryCount 2 should be under a ceiling of 3")
	}

	m.RetryCount = 3
	if m.CanRetry(3) {
		t.Error("retryCount 3 should be at the ceiling")
	}
}

func TestEventValid(t *testing.T) {
	now := time.Now()

	w := NewWorkoutEvent(now, WorkoutData{TotalVolume: 1000})
	if !w.Valid() {
		t.Error("workout event should be valid")
	}

	r := NewRecoveryEvent(now, RecoveryData{SleepHours: 7})
	if !r.Valid() {
		t.Error("recovery event should be valid")
	}

	bad := CoachEvent{Type: EventWorkoutCompleted, Timestamp: now, Recovery: &RecoveryData{}}
	if bad.Valid() {
		t.Error("workout event with recovery payload should be invalid")
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Error("priority rank ordering is wrong")
	}
}
