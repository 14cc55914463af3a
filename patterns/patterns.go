// ABOUTME: Pattern detection over the coach event log
// ABOUTME: Runs all detectors and returns results in priority order
package patterns

import (
	"math"
	"sort"
	"time"

	"github.com/harperreed/kinetic/models"
)

// Detect runs every detector over events and returns the non-nil results
// sorted high to medium to low. programDay <= 0 means no active program.
// Detectors that lack sufficient history return nothing rather than a false
// signal.
func Detect(events []models.CoachEvent, programDay int, now time.Time) []models.DetectedPattern {
	detectors := []func() *models.DetectedPattern{
		func() *models.DetectedPattern { return DetectRestSkipper(events) },
		func() *models.DetectedPattern { return DetectLowSleep(events) },
		func() *models.DetectedPattern { return DetectTrainingStreak(events, now) },
		func() *models.DetectedPattern { return DetectOvertraining(events, now) },
		func() *models.DetectedPattern { return DetectVolumeProgression(events) },
		func() *models.DetectedPattern { return DetectStaleWorkout(events) },
		func() *models.DetectedPattern { return DetectGoodSession(events) },
		func() *models.DetectedPattern { return DetectMilestone(programDay) },
	}

	var detected []models.DetectedPattern
	for _, d := range detectors {
		if p := d(); p != nil {
			detected = append(detected, *p)
		}
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Priority.Rank() < detected[j].Priority.Rank()
	})
	return detected
}

// workouts returns the workout_completed events in log order.
func workouts(events []models.CoachEvent) []models.CoachEvent {
	var out []models.CoachEvent
	for _, e := range events {
		if e.Type == models.EventWorkoutCompleted && e.Workout != nil {
			out = append(out, e)
		}
	}
	return out
}

// latestRecovery returns the most recent recovery_checkin, or nil.
func latestRecovery(events []models.CoachEvent) *models.CoachEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == models.EventRecoveryCheckin && events[i].Recovery != nil {
			return &events[i]
		}
	}
	return nil
}

// validVolume reports whether v is usable in volume math.
func validVolume(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
