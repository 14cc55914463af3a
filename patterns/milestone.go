// ABOUTME: Program milestone detection
// ABOUTME: Fires on a fixed set of program days
package patterns

import "github.com/harperreed/kinetic/models"

// milestoneDays are the program days worth celebrating.
var milestoneDays = map[int]bool{
	1: true, 7: true, 14: true, 21: true,
	30: true, 60: true, 90: true, 100: true, 365: true,
}

// DetectMilestone fires when programDay is one of the fixed milestone days.
// Day 30 and beyond is high priority, earlier milestones medium.
func DetectMilestone(programDay int) *models.DetectedPattern {
	if !milestoneDays[programDay] {
		return nil
	}

	priority := models.PriorityMedium
	if programDay >= 30 {
		priority = models.PriorityHigh
	}

	return &models.DetectedPattern{
		Type:     models.PatternMilestone,
		Priority: priority,
		Evidence: map[string]any{
			"program_day": programDay,
		},
	}
}
