// ABOUTME: Data models for the resilience and analytics core
// ABOUTME: Defines QueuedMutation, CoachEvent, DetectedPattern, and CoachInsight
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority orders patterns and insights for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sortable weight, lower is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// MealPayload is the pending write carried by a queued mutation.
type MealPayload struct {
	Description string `json:"description"`
	Calories    int    `json:"calories"`
	Protein     int    `json:"protein,omitempty"`
	Carbs       int    `json:"carbs,omitempty"`
	Fat         int    `json:"fat,omitempty"`
	Date        string `json:"date"`
}

// Fingerprint derives the dedup key from the semantically distinguishing fields.
func (m MealPayload) Fingerprint() string {
	return fmt.Sprintf("%s|%d|%s", m.Description, m.Calories, m.Date)
}

// QueuedMutation is a write that has not yet been confirmed by the remote system.
type QueuedMutation struct {
	ID         string      `json:"id"`
	Owner      string      `json:"owner,omitempty"`
	Payload    MealPayload `json:"payload"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	RetryCount int         `json:"retry_count"`
}

// CanRetry reports whether the mutation is still under the retry ceiling.
func (m *QueuedMutation) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// EventType tags the variants of CoachEvent.
type EventType string

const (
	EventWorkoutCompleted EventType = "workout_completed"
	EventRecoveryCheckin  EventType = "recovery_checkin"
)

// WorkoutData is the payload of a workout_completed event.
type WorkoutData struct {
	Exercises    []string `json:"exercises,omitempty"`
	TotalVolume  float64  `json:"total_volume,omitempty"`
	RestsTaken   int      `json:"rests_taken,omitempty"`
	RestsSkipped int      `json:"rests_skipped,omitempty"`
}

// RecoveryData is the payload of a recovery_checkin event.
type RecoveryData struct {
	SleepHours  float64  `json:"sleep_hours,omitempty"`
	SoreAreas   []string `json:"sore_areas,omitempty"`
	EnergyLevel int      `json:"energy_level,omitempty"`
}

// CoachEvent is an immutable record of user activity. Exactly one of
// Workout or Recovery is set, matching Type.
type CoachEvent struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Workout   *WorkoutData  `json:"workout,omitempty"`
	Recovery  *RecoveryData `json:"recovery,omitempty"`
}

// NewWorkoutEvent builds a workout_completed event.
func NewWorkoutEvent(ts time.Time, data WorkoutData) CoachEvent {
	return CoachEvent{Type: EventWorkoutCompleted, Timestamp: ts, Workout: &data}
}

// NewRecoveryEvent builds a recovery_checkin event.
func NewRecoveryEvent(ts time.Time, data RecoveryData) CoachEvent {
	return CoachEvent{Type: EventRecoveryCheckin, Timestamp: ts, Recovery: &data}
}

// Valid reports whether the event's payload matches its type tag.
func (e CoachEvent) Valid() bool {
	switch e.Type {
	case EventWorkoutCompleted:
		return e.Workout != nil && e.Recovery == nil
	case EventRecoveryCheckin:
		return e.Recovery != nil && e.Workout == nil
	}
	return false
}

// PatternType identifies a detector result.
type PatternType string

const (
	PatternRestSkipper       PatternType = "rest_skipper"
	PatternLowSleep          PatternType = "low_sleep"
	PatternTrainingStreak    PatternType = "training_streak"
	PatternOvertraining      PatternType = "overtraining"
	PatternVolumeProgression PatternType = "volume_progression"
	PatternStaleWorkout      PatternType = "stale_workout"
	PatternGoodSession       PatternType = "good_session"
	PatternMilestone         PatternType = "milestone"
)

// DetectedPattern is an ephemeral detector result, recomputed on demand.
type DetectedPattern struct {
	Type       PatternType    `json:"type"`
	Priority   Priority       `json:"priority"`
	Evidence   map[string]any `json:"evidence,omitempty"`
	ProductKey string         `json:"product_key,omitempty"`
}

// Recommendation is a product reference resolved by the catalog collaborator.
type Recommendation struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// CoachInsight is the persisted, user-facing instantiation of a pattern.
type CoachInsight struct {
	ID          uuid.UUID       `json:"id"`
	Type        PatternType     `json:"type"`
	Message     string          `json:"message"`
	Priority    Priority        `json:"priority"`
	Product     *Recommendation `json:"product,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	DismissedAt *time.Time      `json:"dismissed_at,omitempty"`
}

// Active reports whether the insight has not been dismissed.
func (i *CoachInsight) Active() bool {
	return i.DismissedAt == nil
}
