// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/database"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

func fastProvider(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		MaxConcurrency:     4,
		RequestTimeout:     5 * time.Second,
		RetryAttempts:      2,
		RetryBaseDelay:     time.Millisecond,
		RetryMaxDelay:      5 * time.Millisecond,
		RetryJitterPercent: 0,
	}
}

func fastJob(batchSize int) config.JobConfig {
	return config.JobConfig{
		Enabled:     true,
		Interval:    time.Hour,
		Budget:      time.Minute,
		MaxDuration: 2 * time.Minute,
		BatchSize:   batchSize,
	}
}

// newTestManager wires a Manager against fixture servers and an in-memory
// database. Empty URLs are fine for providers a test never exercises.
func newTestManager(t *testing.T, congressURL, fecURL, houseURL, senateURL string) (*Manager, *database.DB) {
	t.Helper()

	cfg := &config.Config{
		Congress:   fastProvider(congressURL),
		FEC:        fastProvider(fecURL),
		HouseClerk: fastProvider(houseURL),
		SenateGov:  fastProvider(senateURL),
		Jobs: config.JobsConfig{
			CheckpointEvery: 1,
			Workers:         4,
			ChunkDelay:      0,
			Members:         fastJob(50),
			Bills:           fastJob(50),
			Votes:           fastJob(50),
			Finance:         fastJob(100),
		},
	}

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewManager(cfg, db), db
}

// membersFixtureServer serves a paginated member listing of total records,
// optionally delaying each response.
func membersFixtureServer(t *testing.T, total int, delay time.Duration, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/v3/member" {
			http.NotFound(w, req)
			return
		}
		calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}

		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

		members := []map[string]interface{}{}
		for i := offset; i < offset+limit && i < total; i++ {
			members = append(members, map[string]interface{}{
				"bioguideId":    fmt.Sprintf("M%06d", i),
				"firstName":     "Taylor",
				"lastName":      fmt.Sprintf("Surname%04d", i),
				"name":          fmt.Sprintf("Surname%04d, Taylor", i),
				"state":         "OH",
				"party":         "I",
				"chamber":       "house",
				"currentMember": true,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"members":    members,
			"pagination": map[string]interface{}{"count": total},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMembersFullEpoch(t *testing.T) {
	var calls atomic.Int64
	srv := membersFixtureServer(t, 150, 0, &calls)
	m, db := newTestManager(t, srv.URL, "", "", "")
	ctx := context.Background()

	result := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if !result.Success {
		t.Fatalf("run failed: %s", result.Message)
	}
	if result.Status != models.RunStatusSucceeded {
		t.Errorf("status = %q, want %q", result.Status, models.RunStatusSucceeded)
	}
	if result.RecordsFetched != 150 || result.RecordsUpserted != 150 {
		t.Errorf("fetched/upserted = %d/%d, want 150/150", result.RecordsFetched, result.RecordsUpserted)
	}

	// 150 records at page size 50 and the envelope's count means exactly
	// three requests, with no trailing empty-page fetch.
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
	if result.APICalls != 3 {
		t.Errorf("result.APICalls = %d, want 3", result.APICalls)
	}

	legs, err := db.ListLegislators(ctx, true)
	if err != nil {
		t.Fatalf("list legislators: %v", err)
	}
	if len(legs) != 150 {
		t.Errorf("stored legislators = %d, want 150", len(legs))
	}

	cur, err := db.GetSyncCursor(ctx, ProviderCongress, "members", models.ScopeGlobal)
	if err != nil {
		t.Fatalf("get cursor: %v", err)
	}
	if cur == nil {
		t.Fatal("expected a cursor row after a completed epoch")
	}
	if len(cur.Cursor) != 0 {
		t.Errorf("cursor not cleared after completed epoch: %s", cur.Cursor)
	}
	if cur.RecordsTotal != 150 {
		t.Errorf("cursor records_total = %d, want 150", cur.RecordsTotal)
	}
	if cur.LastSuccessAt == nil {
		t.Error("last_success_at not stamped on completed epoch")
	}

	runs, err := db.ListJobRuns(ctx, JobMembers, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunStatusSucceeded {
		t.Errorf("job run audit = %+v, want one succeeded run", runs)
	}
}

func TestMembersResumesAfterBudgetWindDown(t *testing.T) {
	var calls atomic.Int64
	srv := membersFixtureServer(t, 150, 80*time.Millisecond, &calls)
	m, db := newTestManager(t, srv.URL, "", "", "")
	ctx := context.Background()

	// A budget smaller than one page fetch winds the first run down after
	// page one.
	m.cfg.Jobs.Members.Budget = 50 * time.Millisecond
	first := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if !first.Success {
		t.Fatalf("first run failed: %s", first.Message)
	}
	if first.Status != models.RunStatusPartial {
		t.Fatalf("first run status = %q, want %q", first.Status, models.RunStatusPartial)
	}
	if first.RecordsFetched != 50 {
		t.Errorf("first run fetched = %d, want 50", first.RecordsFetched)
	}

	cur, err := db.GetSyncCursor(ctx, ProviderCongress, "members", models.ScopeGlobal)
	if err != nil || cur == nil {
		t.Fatalf("cursor after partial run: %v, %v", cur, err)
	}
	if len(cur.Cursor) == 0 {
		t.Fatal("partial run must retain a resumption cursor")
	}

	m.cfg.Jobs.Members.Budget = time.Minute
	second := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if !second.Success || second.Status != models.RunStatusSucceeded {
		t.Fatalf("second run = %+v, want succeeded", second)
	}
	if second.RecordsFetched != 100 {
		t.Errorf("second run fetched = %d, want 100 (resumed at page two)", second.RecordsFetched)
	}

	// Interrupted-then-resumed lands on the same state as one uninterrupted
	// run: every record present once, three total page fetches.
	legs, err := db.ListLegislators(ctx, true)
	if err != nil {
		t.Fatalf("list legislators: %v", err)
	}
	if len(legs) != 150 {
		t.Errorf("stored legislators = %d, want 150", len(legs))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("total upstream calls = %d, want 3", got)
	}
}

func TestMembersWindDownOn429ReportsPartial(t *testing.T) {
	// Page one is served normally; while throttled, later pages answer 429
	// after a delay long enough to push the run past its wind-down point.
	var throttle atomic.Bool
	throttle.Store(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
		if throttle.Load() && offset > 0 {
			time.Sleep(80 * time.Millisecond)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		members := []map[string]interface{}{}
		for i := offset; i < offset+limit && i < 150; i++ {
			members = append(members, map[string]interface{}{
				"bioguideId":    fmt.Sprintf("M%06d", i),
				"firstName":     "Taylor",
				"lastName":      fmt.Sprintf("Surname%04d", i),
				"name":          fmt.Sprintf("Surname%04d, Taylor", i),
				"state":         "OH",
				"chamber":       "house",
				"currentMember": true,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"members":    members,
			"pagination": map[string]interface{}{"count": 150},
		})
	}))
	defer srv.Close()

	m, db := newTestManager(t, srv.URL, "", "", "")
	ctx := context.Background()

	// A 429 abandoned at wind-down is a soft stop: the run reports partial
	// with the cursor retained, never failed.
	m.cfg.Jobs.Members.Budget = 50 * time.Millisecond
	first := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if !first.Success {
		t.Fatalf("wind-down run reported failure: %s", first.Message)
	}
	if first.Status != models.RunStatusPartial {
		t.Fatalf("status = %q, want %q", first.Status, models.RunStatusPartial)
	}
	if first.RecordsFetched != 50 {
		t.Errorf("fetched = %d, want 50 (page one only)", first.RecordsFetched)
	}

	cur, err := db.GetSyncCursor(ctx, ProviderCongress, "members", models.ScopeGlobal)
	if err != nil || cur == nil || len(cur.Cursor) == 0 {
		t.Fatalf("resumption cursor after wind-down: %+v, %v", cur, err)
	}
	lease, err := db.GetLease(ctx, JobMembers)
	if err != nil || lease == nil {
		t.Fatalf("lease after wind-down: %+v, %v", lease, err)
	}
	if lease.Status != models.JobStatusPartial {
		t.Errorf("lease status = %q, want %q", lease.Status, models.JobStatusPartial)
	}
	runs, err := db.ListJobRuns(ctx, JobMembers, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("run history: %+v, %v", runs, err)
	}
	if runs[0].Status != models.RunStatusPartial || runs[0].Error != "" {
		t.Errorf("audit run = %q/%q, want partial with no error", runs[0].Status, runs[0].Error)
	}

	// With the throttle lifted the next run resumes and completes.
	throttle.Store(false)
	m.cfg.Jobs.Members.Budget = time.Minute
	second := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if !second.Success || second.Status != models.RunStatusSucceeded {
		t.Fatalf("second run = %+v, want succeeded", second)
	}
	legs, err := db.ListLegislators(ctx, true)
	if err != nil {
		t.Fatalf("list legislators: %v", err)
	}
	if len(legs) != 150 {
		t.Errorf("stored legislators = %d, want 150", len(legs))
	}
}

func TestPausedRunTouchesNothing(t *testing.T) {
	var calls atomic.Int64
	srv := membersFixtureServer(t, 10, 0, &calls)
	m, db := newTestManager(t, srv.URL, "", "", "")
	ctx := context.Background()

	if err := db.SetSyncPaused(ctx, true); err != nil {
		t.Fatalf("pause: %v", err)
	}

	result := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if result.Success || !result.Paused {
		t.Fatalf("result = %+v, want success=false paused=true", result)
	}

	if got := calls.Load(); got != 0 {
		t.Errorf("upstream calls while paused = %d, want 0", got)
	}
	lease, err := db.GetLease(ctx, JobMembers)
	if err != nil {
		t.Fatalf("get lease: %v", err)
	}
	if lease != nil {
		t.Errorf("paused run touched the lease: %+v", lease)
	}
	cur, err := db.GetSyncCursor(ctx, ProviderCongress, "members", models.ScopeGlobal)
	if err != nil {
		t.Fatalf("get cursor: %v", err)
	}
	if cur != nil {
		t.Errorf("paused run touched the cursor: %+v", cur)
	}

	if err := db.SetSyncPaused(ctx, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if result := m.TriggerSync(ctx, JobMembers, SyncOptions{}); !result.Success {
		t.Fatalf("run after unpause failed: %s", result.Message)
	}
}

func TestHeldLeaseReportsAlreadyRunning(t *testing.T) {
	var calls atomic.Int64
	srv := membersFixtureServer(t, 10, 0, &calls)
	m, db := newTestManager(t, srv.URL, "", "", "")
	ctx := context.Background()

	if err := db.AcquireLease(ctx, JobMembers, time.Minute); err != nil {
		t.Fatalf("acquire lease: %v", err)
	}

	result := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if result.Success || !result.AlreadyRunning {
		t.Fatalf("result = %+v, want success=false already_running=true", result)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("upstream calls under a held lease = %d, want 0", got)
	}

	// The losing trigger must not have released the holder's lease.
	lease, err := db.GetLease(ctx, JobMembers)
	if err != nil || lease == nil {
		t.Fatalf("get lease: %v, %v", lease, err)
	}
	if lease.Status != models.JobStatusRunning {
		t.Errorf("lease status = %q, want %q", lease.Status, models.JobStatusRunning)
	}
}

func TestTriggerSyncUnknownJob(t *testing.T) {
	m, _ := newTestManager(t, "", "", "", "")

	result := m.TriggerSync(context.Background(), "weather", SyncOptions{})
	if result.Success {
		t.Fatal("unknown job reported success")
	}
	if !strings.Contains(result.Message, "weather") {
		t.Errorf("message = %q, want the job name", result.Message)
	}
}

func TestBillsSyncEnrichesFromDetailFeed(t *testing.T) {
	congress := currentCongress(time.Now())
	var listCalls, detailCalls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.URL.Path == fmt.Sprintf("/v3/bill/%d", congress):
			listCalls.Add(1)
			offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
			bills := []map[string]interface{}{}
			if offset == 0 {
				for n := 1; n <= 2; n++ {
					bills = append(bills, map[string]interface{}{
						"congress": congress,
						"type":     "hr",
						"number":   n,
						"title":    fmt.Sprintf("A bill, number %d", n),
					})
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"bills":      bills,
				"pagination": map[string]interface{}{"count": 2},
			})
		case strings.HasPrefix(req.URL.Path, fmt.Sprintf("/v3/bill/%d/hr/", congress)):
			detailCalls.Add(1)
			n, _ := strconv.Atoi(req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:])
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"bill": map[string]interface{}{
					"congress":          congress,
					"type":              "hr",
					"number":            n,
					"title":             fmt.Sprintf("A bill, number %d", n),
					"sponsorBioguideId": "S000001",
					"introducedDate":    "2026-01-15",
					"latestAction": map[string]interface{}{
						"actionDate": "2026-02-01",
						"text":       "Referred to committee.",
					},
				},
			})
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	m, db := newTestManager(t, srv.URL, "", "", "")
	ctx := context.Background()

	result := m.TriggerSync(ctx, JobBills, SyncOptions{})
	if !result.Success || result.Status != models.RunStatusSucceeded {
		t.Fatalf("run = %+v, want succeeded", result)
	}
	if result.RecordsUpserted != 2 {
		t.Errorf("upserted = %d, want 2", result.RecordsUpserted)
	}
	if got := detailCalls.Load(); got != 2 {
		t.Errorf("detail calls = %d, want one per bill", got)
	}

	count, err := db.CountBills(ctx)
	if err != nil {
		t.Fatalf("count bills: %v", err)
	}
	if count != 2 {
		t.Errorf("stored bills = %d, want 2", count)
	}

	// Re-running against the same feed is idempotent on the natural key.
	if result := m.TriggerSync(ctx, JobBills, SyncOptions{}); !result.Success {
		t.Fatalf("second run failed: %s", result.Message)
	}
	count, err = db.CountBills(ctx)
	if err != nil {
		t.Fatalf("count bills: %v", err)
	}
	if count != 2 {
		t.Errorf("stored bills after re-run = %d, want 2", count)
	}
}

func TestVotesSyncWalksHouseFeed(t *testing.T) {
	houseSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "roll001.xml") {
			_, _ = w.Write([]byte(houseRollFixture))
			return
		}
		http.NotFound(w, req)
	}))
	defer houseSrv.Close()

	// The senate feed has nothing published.
	senateSrv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer senateSrv.Close()

	m, db := newTestManager(t, "", "", houseSrv.URL, senateSrv.URL)
	ctx := context.Background()

	result := m.TriggerSync(ctx, JobVotes, SyncOptions{})
	if !result.Success || result.Status != models.RunStatusSucceeded {
		t.Fatalf("run = %+v, want succeeded", result)
	}
	if result.RecordsUpserted != 2 {
		t.Errorf("upserted positions = %d, want 2", result.RecordsUpserted)
	}

	rc, err := db.GetRollCall(ctx, ChamberHouse, 119, 2, 87)
	if err != nil {
		t.Fatalf("get roll call: %v", err)
	}
	if rc == nil || len(rc.Positions) != 2 {
		t.Fatalf("stored roll = %+v, want 2 positions", rc)
	}

	// A caught-up feed keeps its high-water mark and stamps success.
	cur, err := db.GetSyncCursor(ctx, ProviderHouseClerk, "votes_house", models.ScopeGlobal)
	if err != nil || cur == nil {
		t.Fatalf("house cursor: %v, %v", cur, err)
	}
	if cur.LastSuccessAt == nil {
		t.Error("house cursor missing success stamp")
	}
	var hw votesCursor
	if err := json.Unmarshal(cur.Cursor, &hw); err != nil {
		t.Fatalf("decode house cursor: %v", err)
	}
	if hw.LastRoll != 1 {
		t.Errorf("house high-water mark = %d, want 1", hw.LastRoll)
	}
}

func TestVotesSenateCutoffStaysPartial(t *testing.T) {
	// House has nothing published and catches up immediately; the senate
	// keeps publishing slow rolls until the budget winds the walk down.
	houseSrv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer houseSrv.Close()

	senateSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(60 * time.Millisecond)
		_, _ = w.Write([]byte(senateRollFixture))
	}))
	defer senateSrv.Close()

	m, db := newTestManager(t, "", "", houseSrv.URL, senateSrv.URL)
	ctx := context.Background()

	for _, leg := range []models.Legislator{
		{BioguideID: "H000001", FirstName: "William", LastName: "Harrington", State: "OH", Chamber: ChamberSenate, InOffice: true},
		{BioguideID: "V000002", FirstName: "Maria", LastName: "Vasquez", State: "NM", Chamber: ChamberSenate, InOffice: true},
	} {
		if err := db.UpsertLegislator(ctx, &leg); err != nil {
			t.Fatalf("seed legislator: %v", err)
		}
	}

	m.cfg.Jobs.Votes.Budget = 100 * time.Millisecond
	result := m.TriggerSync(ctx, JobVotes, SyncOptions{})
	if !result.Success {
		t.Fatalf("cut-off run reported failure: %s", result.Message)
	}
	// One caught-up chamber must not mark the whole run complete while the
	// other was abandoned mid-walk.
	if result.Status != models.RunStatusPartial {
		t.Fatalf("status = %q, want %q", result.Status, models.RunStatusPartial)
	}

	house, err := db.GetSyncCursor(ctx, ProviderHouseClerk, "votes_house", models.ScopeGlobal)
	if err != nil || house == nil {
		t.Fatalf("house cursor: %+v, %v", house, err)
	}
	if house.LastSuccessAt == nil {
		t.Error("caught-up house cursor missing its success stamp")
	}

	senate, err := db.GetSyncCursor(ctx, ProviderSenateGov, "votes_senate", models.ScopeGlobal)
	if err != nil || senate == nil {
		t.Fatalf("senate cursor: %+v, %v", senate, err)
	}
	if senate.LastSuccessAt != nil {
		t.Error("abandoned senate walk must not stamp success")
	}
	var hw votesCursor
	if err := json.Unmarshal(senate.Cursor, &hw); err != nil {
		t.Fatalf("decode senate cursor: %v", err)
	}
	if hw.LastRoll < 1 {
		t.Errorf("senate high-water mark = %d, want progress retained", hw.LastRoll)
	}
}

// cursorCountingStore counts PutSyncCursor writes passing through to the
// real store.
type cursorCountingStore struct {
	Store
	writes atomic.Int64
}

func (s *cursorCountingStore) PutSyncCursor(ctx context.Context, provider, dataset, scopeKey string, cursor []byte, recordsTotal int, success bool) error {
	s.writes.Add(1)
	return s.Store.PutSyncCursor(ctx, provider, dataset, scopeKey, cursor, recordsTotal, success)
}

func TestCheckpointEveryBatchesCursorWrites(t *testing.T) {
	var calls atomic.Int64
	srv := membersFixtureServer(t, 200, 0, &calls)
	m, db := newTestManager(t, srv.URL, "", "", "")
	counting := &cursorCountingStore{Store: db}
	m.store = counting
	m.cfg.Jobs.CheckpointEvery = 3
	ctx := context.Background()

	result := m.TriggerSync(ctx, JobMembers, SyncOptions{})
	if !result.Success || result.Status != models.RunStatusSucceeded {
		t.Fatalf("run = %+v, want succeeded", result)
	}
	if result.RecordsFetched != 200 {
		t.Errorf("fetched = %d, want 200", result.RecordsFetched)
	}

	// Four pages at interval three: one mid-epoch checkpoint (page three)
	// plus the epoch-completion write.
	if got := counting.writes.Load(); got != 2 {
		t.Errorf("cursor writes = %d, want 2", got)
	}
}

func financeFixtureServer(t *testing.T, candidateID string, cycle int, searchCalls *atomic.Int64) *httptest.Server {
	t.Helper()

	receipt := func(sub string, amount float64, name string) map[string]interface{} {
		return map[string]interface{}{
			"sub_id":                      sub,
			"committee_id":                "C00100001",
			"contribution_receipt_date":   "2026-03-01",
			"contribution_receipt_amount": amount,
			"contributor_name":            name,
			"contributor_zip":             "43215",
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/v1/candidates/search":
			searchCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{{
					"candidate_id": candidateID,
					"name":         "HARRINGTON, WILLIAM",
					"state":        "OH",
					"office":       "H",
					"cycles":       []int{cycle},
				}},
			})
		case "/v1/candidate/" + candidateID + "/totals":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{{
					"receipts":                     1500000.0,
					"disbursements":                900000.0,
					"last_cash_on_hand_end_period": 600000.0,
				}},
			})
		case "/v1/schedules/schedule_a":
			if req.URL.Query().Get("last_index") == "" {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"results": []map[string]interface{}{
						receipt("SA0001", 2800, "SMITH, JANE"),
						receipt("SA0002", 5000, "TEAMSTERS LOCAL 25 PAC"),
					},
					"pagination": map[string]interface{}{"last_index": "p2"},
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					receipt("SA0003", 1000, "ACME WIDGETS INC"),
				},
				"pagination": map[string]interface{}{"last_index": ""},
			})
		default:
			http.NotFound(w, req)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFinanceSyncMatchesAndReconciles(t *testing.T) {
	const candidateID = "H6OH00001"
	cycle := currentElectionCycle(time.Now())

	var searchCalls atomic.Int64
	srv := financeFixtureServer(t, candidateID, cycle, &searchCalls)
	m, db := newTestManager(t, "", srv.URL, "", "")
	ctx := context.Background()

	err := db.UpsertLegislator(ctx, &models.Legislator{
		BioguideID: "H000001",
		FirstName:  "William",
		LastName:   "Harrington",
		FullName:   "Harrington, William",
		State:      "OH",
		Chamber:    "house",
		Party:      "I",
		InOffice:   true,
	})
	if err != nil {
		t.Fatalf("seed legislator: %v", err)
	}

	result := m.TriggerSync(ctx, JobFinance, SyncOptions{})
	if !result.Success || result.Status != models.RunStatusSucceeded {
		t.Fatalf("run = %+v, want succeeded", result)
	}
	// Three receipts plus the totals row.
	if result.RecordsUpserted != 4 {
		t.Errorf("upserted = %d, want 4", result.RecordsUpserted)
	}

	leg, err := db.GetLegislator(ctx, "H000001")
	if err != nil || leg == nil {
		t.Fatalf("get legislator: %v, %v", leg, err)
	}
	if leg.FECCandidateID == nil || *leg.FECCandidateID != candidateID {
		t.Fatalf("match not cached: %+v", leg.FECCandidateID)
	}

	count, err := db.CountFinanceFilings(ctx, candidateID, cycle)
	if err != nil {
		t.Fatalf("count filings: %v", err)
	}
	if count != 3 {
		t.Errorf("stored filings = %d, want 3", count)
	}

	// Replay is idempotent, and the cached match skips the search.
	if result := m.TriggerSync(ctx, JobFinance, SyncOptions{}); !result.Success {
		t.Fatalf("second run failed: %s", result.Message)
	}
	count, err = db.CountFinanceFilings(ctx, candidateID, cycle)
	if err != nil {
		t.Fatalf("count filings: %v", err)
	}
	if count != 3 {
		t.Errorf("filings after replay = %d, want 3", count)
	}
	if got := searchCalls.Load(); got != 1 {
		t.Errorf("candidate searches across two runs = %d, want 1 (cached)", got)
	}
}

func TestFinanceTargetedResyncUsesOwnLease(t *testing.T) {
	const candidateID = "H6OH00001"
	cycle := currentElectionCycle(time.Now())

	var searchCalls atomic.Int64
	srv := financeFixtureServer(t, candidateID, cycle, &searchCalls)
	m, db := newTestManager(t, "", srv.URL, "", "")
	ctx := context.Background()

	err := db.UpsertLegislator(ctx, &models.Legislator{
		BioguideID: "H000001",
		FirstName:  "William",
		LastName:   "Harrington",
		State:      "OH",
		Chamber:    "house",
		InOffice:   true,
	})
	if err != nil {
		t.Fatalf("seed legislator: %v", err)
	}

	// The batch job holding its lease must not block a targeted re-sync.
	if err := db.AcquireLease(ctx, JobFinance, time.Minute); err != nil {
		t.Fatalf("acquire batch lease: %v", err)
	}

	result := m.TriggerSync(ctx, JobFinance, SyncOptions{BioguideID: "H000001"})
	if !result.Success || result.Status != models.RunStatusSucceeded {
		t.Fatalf("targeted run = %+v, want succeeded", result)
	}

	count, err := db.CountFinanceFilings(ctx, candidateID, cycle)
	if err != nil {
		t.Fatalf("count filings: %v", err)
	}
	if count != 3 {
		t.Errorf("stored filings = %d, want 3", count)
	}

	// The targeted run kept its cursor under its own scope.
	cur, err := db.GetSyncCursor(ctx, ProviderFEC, "finance", "H000001")
	if err != nil || cur == nil {
		t.Fatalf("targeted cursor: %v, %v", cur, err)
	}
	if cur.LastSuccessAt == nil {
		t.Error("targeted cursor missing success stamp")
	}
	global, err := db.GetSyncCursor(ctx, ProviderFEC, "finance", models.ScopeGlobal)
	if err != nil {
		t.Fatalf("global cursor: %v", err)
	}
	if global != nil {
		t.Errorf("targeted run wrote the global cursor: %+v", global)
	}
}

func TestFinanceUnknownTargetFails(t *testing.T) {
	m, _ := newTestManager(t, "", "", "", "")

	result := m.TriggerSync(context.Background(), JobFinance, SyncOptions{BioguideID: "Z999999"})
	if result.Success {
		t.Fatal("unknown targeted legislator reported success")
	}
	if result.Status != models.RunStatusFailed {
		t.Errorf("status = %q, want %q", result.Status, models.RunStatusFailed)
	}
}
