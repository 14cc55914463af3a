// ABOUTME: Fallback insight message templates
// ABOUTME: Deterministic per-pattern messages used when no richer template is injected
package insights

import (
	"fmt"

	"github.com/harperreed/kinetic/models"
)

// FallbackMessage renders the built-in message for a pattern.
func FallbackMessage(p models.DetectedPattern) string {
	switch p.Type {
	case models.PatternRestSkipper:
		return "You've been cutting rests short. Full rest periods protect your next set."
	case models.PatternLowSleep:
		if h, ok := p.Evidence["sleep_hours"].(float64); ok {
			return fmt.Sprintf("Only %.1f hours of sleep last night. Consider an easier session today.", h)
		}
		return "You're short on sleep. Consider an easier session today."
	case models.PatternTrainingStreak:
		if d, ok := p.Evidence["streak_days"].(int); ok {
			return fmt.Sprintf("%d days in a row. Keep the streak alive!", d)
		}
		return "You're on a training streak. Keep it alive!"
	case models.PatternOvertraining:
		return "Heavy week and lots of soreness. A recovery day will do more than another session."
	case models.PatternVolumeProgression:
		return "Your training volume is trending up. Solid progress."
	case models.PatternStaleWorkout:
		return "Your last few workouts look identical. Time to mix in something new."
	case models.PatternGoodSession:
		return "That was a big session, well above your recent baseline."
	case models.PatternMilestone:
		if d, ok := p.Evidence["program_day"].(int); ok {
			return fmt.Sprintf("Day %d of your program. That consistency is the whole game.", d)
		}
		return "You hit a program milestone. That consistency is the whole game."
	}
	return "Keep going. Your training data shows a new pattern."
}
