// ABOUTME: Workout-derived pattern detectors
// ABOUTME: Rest skipping, overtraining, volume trends, stale programming, good sessions
package patterns

import (
	"time"

	"github.com/harperreed/kinetic/models"
)

// DetectRestSkipper fires when over the last 3 workouts more than half of
// all rest periods were skipped.
func DetectRestSkipper(events []models.CoachEvent) *models.DetectedPattern {
	w := workouts(events)
	if len(w) < 3 {
		return nil
	}
	w = w[len(w)-3:]

	taken, skipped := 0, 0
	for _, e := range w {
		taken += e.Workout.RestsTaken
		skipped += e.Workout.RestsSkipped
	}

	total := taken + skipped
	if total == 0 {
		return nil
	}
	if float64(skipped)/float64(total) <= 0.5 {
		return nil
	}

	return &models.DetectedPattern{
		Type:     models.PatternRestSkipper,
		Priority: models.PriorityMedium,
		Evidence: map[string]any{
			"rests_skipped": skipped,
			"rests_total":   total,
		},
	}
}

// DetectOvertraining fires when more than 5 workouts landed in the trailing
// 7 days and a recovery check-in within the trailing 3 days reports more
// than 2 sore areas. Without a recent check-in there is no signal, however
// heavy the week was.
func DetectOvertraining(events []models.CoachEvent, now time.Time) *models.DetectedPattern {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	recent := 0
	for _, e := range workouts(events) {
		if e.Timestamp.After(weekAgo) {
			recent++
		}
	}
	if recent <= 5 {
		return nil
	}

	checkin := latestRecovery(events)
	if checkin == nil || checkin.Timestamp.Before(now.Add(-3*24*time.Hour)) {
		return nil
	}
	if len(checkin.Recovery.SoreAreas) <= 2 {
		return nil
	}

	return &models.DetectedPattern{
		Type:     models.PatternOvertraining,
		Priority: models.PriorityHigh,
		Evidence: map[string]any{
			"workouts_last_7d": recent,
			"sore_areas":       len(checkin.Recovery.SoreAreas),
		},
		ProductKey: "recovery-kit",
	}
}

// DetectVolumeProgression fires when the mean volume of the most recent half
// of workout history exceeds the earliest half by more than 10%.
func DetectVolumeProgression(events []models.CoachEvent) *models.DetectedPattern {
	var volumes []float64
	for _, e := range workouts(events) {
		if validVolume(e.Workout.TotalVolume) {
			volumes = append(volumes, e.Workout.TotalVolume)
		}
	}
	if len(volumes) < 4 {
		return nil
	}

	mid := len(volumes) / 2
	early := mean(volumes[:mid])
	recent := mean(volumes[mid:])

	if early == 0 || !validVolume(early) || !validVolume(recent) {
		return nil
	}
	if recent/early <= 1.10 {
		return nil
	}

	return &models.DetectedPattern{
		Type:     models.PatternVolumeProgression,
		Priority: models.PriorityLow,
		Evidence: map[string]any{
			"early_mean":  early,
			"recent_mean": recent,
		},
	}
}

// DetectStaleWorkout fires when the same 3 or more exercises appear in every
// one of the last 4 workouts.
func DetectStaleWorkout(events []models.CoachEvent) *models.DetectedPattern {
	w := workouts(events)
	if len(w) < 4 {
		return nil
	}
	w = w[len(w)-4:]

	shared := map[string]bool{}
	for _, name := range w[0].Workout.Exercises {
		shared[name] = true
	}
	for _, e := range w[1:] {
		present := map[string]bool{}
		for _, name := range e.Workout.Exercises {
			present[name] = true
		}
		for name := range shared {
			if !present[name] {
				delete(shared, name)
			}
		}
	}

	if len(shared) < 3 {
		return nil
	}

	repeated := make([]string, 0, len(shared))
	for name := range shared {
		repeated = append(repeated, name)
	}

	return &models.DetectedPattern{
		Type:     models.PatternStaleWorkout,
		Priority: models.PriorityLow,
		Evidence: map[string]any{
			"repeated_exercises": len(repeated),
		},
		ProductKey: "program-refresh",
	}
}

// DetectGoodSession fires when the latest workout's volume beats the prior
// workout's by more than 15%.
func DetectGoodSession(events []models.CoachEvent) *models.DetectedPattern {
	w := workouts(events)
	if len(w) < 2 {
		return nil
	}

	prior := w[len(w)-2].Workout.TotalVolume
	latest := w[len(w)-1].Workout.TotalVolume
	if !validVolume(prior) || !validVolume(latest) {
		return nil
	}
	if latest/prior <= 1.15 {
		return nil
	}

	return &models.DetectedPattern{
		Type:     models.PatternGoodSession,
		Priority: models.PriorityLow,
		Evidence: map[string]any{
			"prior_volume":  prior,
			"latest_volume": latest,
		},
	}
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
