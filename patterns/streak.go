// ABOUTME: Training streak detection over UTC calendar days
// ABOUTME: Counts consecutive workout days anchored at today or yesterday
package patterns

import (
	"time"

	"github.com/harperreed/kinetic/models"
)

// DetectTrainingStreak counts consecutive distinct UTC calendar days with at
// least one workout, anchored at today or yesterday. Any gap of more than
// one day breaks the streak. Streaks under 3 days are not reported; 5 or
// more days upgrades the priority to high.
func DetectTrainingStreak(events []models.CoachEvent, now time.Time) *models.DetectedPattern {
	days := map[string]bool{}
	for _, e := range workouts(events) {
		days[utcDay(e.Timestamp)] = true
	}
	if len(days) == 0 {
		return nil
	}

	anchor := now.UTC().Truncate(24 * time.Hour)
	if !days[utcDay(anchor)] {
		anchor = anchor.AddDate(0, 0, -1)
		if !days[utcDay(anchor)] {
			return nil
		}
	}

	streak := 0
	for day := anchor; days[utcDay(day)]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	if streak < 3 {
		return nil
	}

	priority := models.PriorityLow
	if streak >= 5 {
		priority = models.PriorityHigh
	}

	return &models.DetectedPattern{
		Type:     models.PatternTrainingStreak,
		Priority: priority,
		Evidence: map[string]any{
			"streak_days": streak,
		},
	}
}

func utcDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
