// ABOUTME: Entry point for the kinetic resilience core CLI
// ABOUTME: Routes queue, flush, events, insights, status, and migrate commands
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/harperreed/kinetic/config"
	"github.com/harperreed/kinetic/events"
	"github.com/harperreed/kinetic/insights"
	"github.com/harperreed/kinetic/migrate"
	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/patterns"
	"github.com/harperreed/kinetic/queue"
	"github.com/harperreed/kinetic/storage"
	"github.com/harperreed/kinetic/syncer"
)

const version = "0.2.0"

func main() {
	// .env is optional
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	backend := flag.String("backend", "badger", "Storage backend: badger, sqlite, or memory")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.local/share/kinetic)")
	owner := flag.String("owner", os.Getenv("KINETIC_OWNER"), "Owner identifier (empty = anonymous)")

	flag.Parse()

	if *showVersion {
		fmt.Printf("kinetic version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg := config.Load()

	store, err := openStore(*backend, *dataDir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	// All writes go through the quota-recovery wrapper.
	evicting := storage.NewEvictingStore(store)

	if !migrate.Run(evicting, *owner) {
		log.Printf("Warning: startup migration incomplete, will retry next run")
	}

	q := queue.New(evicting, cfg, queue.NewULIDGenerator())
	engine := syncer.New(q, cfg, reachability())
	eventLog := events.New(evicting, cfg)
	manager := insights.NewManager(evicting, cfg, nil, nil)

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "queue":
		if err := queueCommand(q, *owner, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "flush":
		if err := flushCommand(engine, *owner, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "events":
		if err := eventsCommand(eventLog, manager, *owner, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "insights":
		if err := insightsCommand(manager, *owner, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "status":
		statusCommand(q, eventLog, manager, *owner)
	case "migrate":
		if migrate.Run(evicting, *owner) {
			log.Println("Migration up to date")
		} else {
			log.Fatal("Migration incomplete")
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func openStore(backend, dataDir string) (storage.Store, error) {
	if dataDir == "" {
		dataDir = filepath.Join(xdg.DataHome, config.AppName)
	}

	switch backend {
	case "badger":
		return storage.OpenBadger(filepath.Join(dataDir, "kv"))
	case "sqlite":
		return storage.OpenSQLite(filepath.Join(dataDir, "kinetic.db"))
	case "memory":
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// reachability reads the connectivity signal. KINETIC_OFFLINE=1 simulates a
// lost connection.
func reachability() syncer.Reachability {
	return syncer.OnlineFunc(func() bool {
		return os.Getenv("KINETIC_OFFLINE") != "1"
	})
}

func queueCommand(q *queue.Queue, owner string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("queue requires a subcommand: add, list")
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("queue add", flag.ExitOnError)
		desc := fs.String("desc", "", "Meal description (required)")
		calories := fs.Int("calories", 0, "Calories")
		protein := fs.Int("protein", 0, "Protein grams")
		carbs := fs.Int("carbs", 0, "Carb grams")
		fat := fs.Int("fat", 0, "Fat grams")
		date := fs.String("date", time.Now().Format("2006-01-02"), "Entry date")
		_ = fs.Parse(args[1:])

		if *desc == "" {
			return fmt.Errorf("-desc is required")
		}

		result := q.Enqueue(models.MealPayload{
			Description: *desc,
			Calories:    *calories,
			Protein:     *protein,
			Carbs:       *carbs,
			Fat:         *fat,
			Date:        *date,
		}, owner)

		if !result.Queued {
			return fmt.Errorf("could not persist mutation; storage is full or unavailable")
		}
		if result.Deduped {
			fmt.Printf("Duplicate within dedup window, reusing entry %s\n", result.Entry.ID)
		} else {
			fmt.Printf("Queued %s\n", result.Entry.ID)
		}
		return nil

	case "list":
		entries := q.Entries(owner)
		if len(entries) == 0 {
			fmt.Println("Queue is empty")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s (%d kcal)  retries=%d  enqueued=%s\n",
				e.ID, e.Payload.Description, e.Payload.Calories, e.RetryCount,
				e.EnqueuedAt.Format(time.RFC3339))
		}
		return nil
	}
	return fmt.Errorf("unknown queue subcommand: %s", args[0])
}

func flushCommand(engine *syncer.Engine, owner string, args []string) error {
	fs := flag.NewFlagSet("flush", flag.ExitOnError)
	endpoint := fs.String("endpoint", os.Getenv("KINETIC_SYNC_URL"), "Remote sync endpoint")
	timeout := fs.Duration("timeout", 30*time.Second, "Per-item commit timeout")
	all := fs.Bool("all", false, "Flush every owner namespace")
	_ = fs.Parse(args)

	if *endpoint == "" {
		return fmt.Errorf("no sync endpoint; set -endpoint or KINETIC_SYNC_URL")
	}

	commit := httpCommit(*endpoint, *timeout)

	var n int
	if *all {
		n = engine.FlushAll(context.Background(), commit)
	} else {
		n = engine.Flush(context.Background(), commit, owner)
	}
	fmt.Printf("Synced %d mutations\n", n)
	return nil
}

// httpCommit posts payloads to the remote endpoint. The per-item timeout
// lives here because the engine imposes none.
func httpCommit(endpoint string, timeout time.Duration) syncer.CommitFunc {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context, payload models.MealPayload) (bool, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return false, err
		}
		defer func() { _ = resp.Body.Close() }()

		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
	}
}

func eventsCommand(eventLog *events.Log, manager *insights.Manager, owner string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("events requires a subcommand: add, list")
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("events add", flag.ExitOnError)
		kind := fs.String("type", "workout", "Event type: workout or recovery")
		volume := fs.Float64("volume", 0, "Workout total volume")
		restsTaken := fs.Int("rests-taken", 0, "Rest periods taken")
		restsSkipped := fs.Int("rests-skipped", 0, "Rest periods skipped")
		sleep := fs.Float64("sleep", 0, "Hours slept (recovery)")
		programDay := fs.Int("program-day", 0, "Current program day")
		_ = fs.Parse(args[1:])

		var event models.CoachEvent
		switch *kind {
		case "workout":
			event = models.NewWorkoutEvent(time.Now(), models.WorkoutData{
				TotalVolume:  *volume,
				RestsTaken:   *restsTaken,
				RestsSkipped: *restsSkipped,
			})
		case "recovery":
			event = models.NewRecoveryEvent(time.Now(), models.RecoveryData{SleepHours: *sleep})
		default:
			return fmt.Errorf("unknown event type %q", *kind)
		}

		if !eventLog.Append(event, owner) {
			return fmt.Errorf("could not persist event")
		}

		// Detection runs synchronously after every append.
		detected := patterns.Detect(eventLog.Load(owner), *programDay, time.Now())
		active := manager.Process(detected, owner)

		fmt.Printf("Recorded %s event; %d patterns detected, %d active insights\n",
			event.Type, len(detected), len(active))
		return nil

	case "list":
		all := eventLog.Load(owner)
		if len(all) == 0 {
			fmt.Println("No events recorded")
			return nil
		}
		for _, e := range all {
			fmt.Printf("%s  %s\n", e.Timestamp.Format(time.RFC3339), e.Type)
		}
		return nil
	}
	return fmt.Errorf("unknown events subcommand: %s", args[0])
}

func insightsCommand(manager *insights.Manager, owner string, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		active := manager.Active(owner)
		if len(active) == 0 {
			fmt.Println("No active insights")
			return nil
		}
		for _, i := range active {
			fmt.Printf("[%s] %s  %s\n  %s\n", i.Priority, i.ID, i.Type, i.Message)
		}
		return nil

	case "dismiss":
		fs := flag.NewFlagSet("insights dismiss", flag.ExitOnError)
		id := fs.String("id", "", "Insight id (required)")
		_ = fs.Parse(args[1:])

		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		if !manager.Dismiss(*id, owner) {
			return fmt.Errorf("no active insight with id %s", *id)
		}
		fmt.Println("Dismissed")
		return nil
	}
	return fmt.Errorf("unknown insights subcommand: %s", args[0])
}

func statusCommand(q *queue.Queue, eventLog *events.Log, manager *insights.Manager, owner string) {
	entries := q.Entries(owner)
	retrying := 0
	for _, e := range entries {
		if e.RetryCount > 0 {
			retrying++
		}
	}

	fmt.Printf("Owner:           %s\n", storage.OwnerSegment(owner))
	fmt.Printf("Pending syncs:   %d (%d retrying)\n", len(entries), retrying)
	fmt.Printf("Events logged:   %d\n", len(eventLog.Load(owner)))
	fmt.Printf("Active insights: %d\n", len(manager.Active(owner)))
}

func printUsage() {
	fmt.Println(`kinetic - offline-first fitness coaching core

Usage:
  kinetic [flags] <command>

Commands:
  queue add|list         Manage the pending mutation queue
  flush                  Drain the queue against the sync endpoint
  events add|list        Record and inspect coach events
  insights list|dismiss  Review coaching insights
  status                 Summarize pending state for the owner
  migrate                Run pending storage migrations

Flags:
  -backend string        badger, sqlite, or memory (default badger)
  -data-dir string       Data directory (default ~/.local/share/kinetic)
  -owner string          Owner identifier (default $KINETIC_OWNER)
  -version               Show version`)
}
