// ABOUTME: Recovery-derived pattern detectors
// ABOUTME: Low sleep detection with out-of-range value rejection
package patterns

import "github.com/harperreed/kinetic/models"

// DetectLowSleep fires when the most recent recovery check-in reports under
// 6 hours of sleep. Values outside [0,24] are invalid and ignored entirely.
func DetectLowSleep(events []models.CoachEvent) *models.DetectedPattern {
	checkin := latestRecovery(events)
	if checkin == nil {
		return nil
	}

	h := checkin.Recovery.SleepHours
	if h < 0 || h > 24 {
		return nil
	}
	if h <= 0 || h >= 6 {
		return nil
	}

	return &models.DetectedPattern{
		Type:     models.PatternLowSleep,
		Priority: models.PriorityHigh,
		Evidence: map[string]any{
			"sleep_hours": h,
		},
		ProductKey: "sleep-support",
	}
}
