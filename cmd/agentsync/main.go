package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetdeck/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
)

// agentsync is the agent-runtime producer. It pushes each agent's exported
// state to the dashboard on a fixed interval, and polls the pull-trigger
// endpoint so a dashboard refresh click gets answered within seconds
// instead of waiting for the next full cycle.
func main() {
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found: %v", err)
	}

	baseURL := envOr("FLEETDECK_URL", "http://localhost:3001")
	secret := os.Getenv("SYNC_API_SECRET")
	stateDir := envOr("AGENT_STATE_DIR", "./state")
	syncEvery := durationOr("SYNC_INTERVAL", 5*time.Minute)
	pollEvery := durationOr("POLL_INTERVAL", 15*time.Second)

	if secret == "" {
		log.Fatal("❌ SYNC_API_SECRET is required")
	}

	client := newSyncClient(baseURL, secret)
	p := &producer{client: client, stateDir: stateDir}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}

	// Full push on a fixed cadence
	if _, err := scheduler.NewJob(
		gocron.DurationJob(syncEvery),
		gocron.NewTask(func() { p.syncAll("interval") }),
		gocron.WithName("full-sync"),
	); err != nil {
		log.Fatalf("❌ Failed to schedule full sync: %v", err)
	}

	// Pull-trigger poll: sync early when the dashboard asked for it
	if _, err := scheduler.NewJob(
		gocron.DurationJob(pollEvery),
		gocron.NewTask(p.pollPending),
		gocron.WithName("pending-poll"),
	); err != nil {
		log.Fatalf("❌ Failed to schedule pending poll: %v", err)
	}

	scheduler.Start()
	log.Printf("🚀 agentsync started (target: %s, state: %s, every %v, poll %v)",
		baseURL, stateDir, syncEvery, pollEvery)

	// One push right away so a fresh deployment is not empty
	p.syncAll("startup")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down agentsync...")
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ Scheduler shutdown error: %v", err)
	}
}

type producer struct {
	client   *syncClient
	stateDir string
}

// pollPending answers an outstanding dashboard refresh request
func (p *producer) pollPending() {
	pending, err := p.client.pending()
	if err != nil {
		log.Printf("⚠️ Pending poll failed: %v", err)
		return
	}
	if !pending {
		return
	}

	log.Println("🔔 Dashboard requested a refresh, syncing now")
	if !p.syncAll("requested") {
		return
	}

	count, err := p.client.fulfill()
	if err != nil {
		log.Printf("⚠️ Fulfill failed: %v", err)
		return
	}
	log.Printf("✅ Fulfilled %d pending requests", count)
}

// syncAll pushes every agent snapshot. Keyed entities re-push safely; the
// cursor keeps append-only feeds from duplicating. Returns false when any
// push failed, so a triggered sync does not fulfill on partial data.
func (p *producer) syncAll(reason string) bool {
	snaps, err := loadSnapshots(p.stateDir)
	if err != nil {
		log.Printf("⚠️ Sync (%s) aborted: %v", reason, err)
		return false
	}

	cur := loadCursor(p.stateDir)
	next := cur
	ok := true

	for _, snap := range snaps {
		if snap.Agent != nil {
			if err := p.client.post("/api/sync/agent-status", snap.Agent); err != nil {
				log.Printf("⚠️ agent-status push failed: %v", err)
				ok = false
			}
		}
		for i := range snap.Sessions {
			if err := p.client.post("/api/sync/session", &snap.Sessions[i]); err != nil {
				log.Printf("⚠️ session push failed: %v", err)
				ok = false
			}
		}
		if len(snap.CronJobs) > 0 {
			if err := p.client.post("/api/sync/cron", &models.SyncCronRequest{Jobs: snap.CronJobs}); err != nil {
				log.Printf("⚠️ cron push failed: %v", err)
				ok = false
			}
		}
		for i := range snap.Tasks {
			if err := p.client.post("/api/sync/task", &snap.Tasks[i]); err != nil {
				log.Printf("⚠️ task push failed: %v", err)
				ok = false
			}
		}
		for i := range snap.Activities {
			if snap.Activities[i].Timestamp <= cur.LastActivityTs {
				continue
			}
			if err := p.client.post("/api/sync/activity", &snap.Activities[i]); err != nil {
				log.Printf("⚠️ activity push failed: %v", err)
				ok = false
				continue
			}
			if snap.Activities[i].Timestamp > next.LastActivityTs {
				next.LastActivityTs = snap.Activities[i].Timestamp
			}
		}
		for i := range snap.Costs {
			if snap.Costs[i].Timestamp <= cur.LastCostTs {
				continue
			}
			if err := p.client.post("/api/sync/cost", &snap.Costs[i]); err != nil {
				log.Printf("⚠️ cost push failed: %v", err)
				ok = false
				continue
			}
			if snap.Costs[i].Timestamp > next.LastCostTs {
				next.LastCostTs = snap.Costs[i].Timestamp
			}
		}
		for i := range snap.Notifications {
			if snap.Notifications[i].Timestamp <= cur.LastNotificationTs {
				continue
			}
			if err := p.client.post("/api/sync/notification", &snap.Notifications[i]); err != nil {
				log.Printf("⚠️ notification push failed: %v", err)
				ok = false
				continue
			}
			if snap.Notifications[i].Timestamp > next.LastNotificationTs {
				next.LastNotificationTs = snap.Notifications[i].Timestamp
			}
		}
	}

	if next != cur {
		if err := saveCursor(p.stateDir, next); err != nil {
			log.Printf("⚠️ Failed to save cursor: %v", err)
		}
	}

	log.Printf("🔄 Sync (%s) done for %d agents (ok=%v)", reason, len(snaps), ok)
	return ok
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
