package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"arena-tournament-service/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// remoteProfile matches the JSON the profile service returns for changed
// esports profiles.
type remoteProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Gamertag  string    `json:"gamertag"`
	Platform  string    `json:"platform"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Profiles []remoteProfile `json:"profiles"`
}

// EsportsProfileSyncWorker mirrors eligibility profiles from the remote
// profile service into the local esports_profiles table. The tournament core
// only ever reads the mirror; it never calls the profile service inline.
// The worker never touches tournament state — lifecycle transitions are
// host-driven only.
type EsportsProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
	scheduler    gocron.Scheduler
}

func NewEsportsProfileSyncWorker(db *gorm.DB, profileServiceURL, endpointPath, serviceToken string) *EsportsProfileSyncWorker {
	return &EsportsProfileSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      profileServiceURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Start backfills once, then schedules incremental syncs. Stops when ctx is
// cancelled.
func (w *EsportsProfileSyncWorker) Start(ctx context.Context) error {
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("[PROFILE_SYNC] initial backfill failed: %v", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create profile sync scheduler: %w", err)
	}
	w.scheduler = sched

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if err := w.syncBatch(ctx, w.lastSyncTime()); err != nil {
				log.Printf("[PROFILE_SYNC] sync batch failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("schedule profile sync job: %w", err)
	}
	sched.Start()

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
		log.Println("[PROFILE_SYNC] worker stopped")
	}()
	return nil
}

// lastSyncTime is the newest UpdatedAt in the local mirror; incremental
// fetches resume from there.
func (w *EsportsProfileSyncWorker) lastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM esports_profiles").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

func (w *EsportsProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build profile sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile service returned %d: %s", resp.StatusCode, string(body))
	}

	var changes profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return fmt.Errorf("decode profile service response: %w", err)
	}
	if len(changes.Profiles) == 0 {
		return nil
	}

	var upserted, failed int
	for _, rp := range changes.Profiles {
		local := models.EsportsProfile{
			ID:        rp.ID,
			UserID:    rp.UserID,
			Gamertag:  rp.Gamertag,
			Platform:  rp.Platform,
			Region:    rp.Region,
			CreatedAt: rp.CreatedAt,
			UpdatedAt: rp.UpdatedAt,
		}
		err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gamertag", "platform", "region", "updated_at",
			}),
		}).Create(&local).Error
		if err != nil {
			failed++
			log.Printf("[PROFILE_SYNC] upsert failed for user %q: %v", rp.UserID, err)
		} else {
			upserted++
		}
	}
	log.Printf("[PROFILE_SYNC] synced %d profile(s), %d failed (since=%s)", upserted, failed, since.UTC().Format(time.RFC3339))
	return nil
}
