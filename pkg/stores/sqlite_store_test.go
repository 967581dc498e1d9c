package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Check that tables exist by querying them
	tables := []string{"runs", "events"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

// TestStoreOnDisk verifies the store works against a file-backed database
func TestStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := NewSQLiteStore(Config{Path: path})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}

// TestRunCRUD tests Run CRUD operations
func TestRunCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	// Create
	run := &Run{
		ID:         "run-001",
		ConfigPath: "/configs/train.yaml",
		ConfigHash: "d41d8cd98f00b204e9800998ecf8427e",
		Backend:    "dryrun",
		Device:     "cuda:0",
		Status:     RunStatusPending,
		StartedAt:  now,
		Manifest:   `{"model":"Unet"}`,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	// Read
	retrieved, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}

	if retrieved.ID != run.ID {
		t.Errorf("expected ID %s, got %s", run.ID, retrieved.ID)
	}
	if retrieved.ConfigPath != run.ConfigPath {
		t.Errorf("expected ConfigPath %s, got %s", run.ConfigPath, retrieved.ConfigPath)
	}
	if retrieved.Backend != run.Backend {
		t.Errorf("expected Backend %s, got %s", run.Backend, retrieved.Backend)
	}
	if retrieved.Status != run.Status {
		t.Errorf("expected Status %s, got %s", run.Status, retrieved.Status)
	}

	// Update
	errMsg := "trainer exited with code 1"
	if err := store.UpdateRunStatus(ctx, run.ID, RunStatusFailed, 3, &errMsg); err != nil {
		t.Fatalf("failed to update run status: %v", err)
	}

	updated, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get updated run: %v", err)
	}

	if updated.Status != RunStatusFailed {
		t.Errorf("expected Status %s, got %s", RunStatusFailed, updated.Status)
	}
	if updated.EpochsCompleted != 3 {
		t.Errorf("expected EpochsCompleted 3, got %d", updated.EpochsCompleted)
	}
	if updated.Error == nil || *updated.Error != errMsg {
		t.Errorf("expected Error %s, got %v", errMsg, updated.Error)
	}
	if updated.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	// List
	runs, err := store.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}

	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}

	// Delete
	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	_, err = store.GetRun(ctx, run.ID)
	if err == nil {
		t.Error("expected error when getting deleted run")
	}
}

// TestUpdateRunStatusNotFound tests updating a missing run
func TestUpdateRunStatusNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	err := store.UpdateRunStatus(context.Background(), "missing", RunStatusRunning, 0, nil)
	if err == nil {
		t.Error("expected error when updating missing run")
	}
}

// TestListRunsOrdering tests that runs are listed most recent first
func TestListRunsOrdering(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := &Run{
			ID:         id,
			ConfigPath: "/configs/train.yaml",
			ConfigHash: "hash",
			Backend:    "dryrun",
			Device:     "cpu",
			Status:     RunStatusCompleted,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			Manifest:   "{}",
			CreatedAt:  base,
			UpdatedAt:  base,
		}
		if err := store.CreateRun(ctx, run); err != nil {
			t.Fatalf("failed to create run %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}

	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[2].ID != "run-a" {
		t.Errorf("expected most recent first, got %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	// Pagination
	page, err := store.ListRuns(ctx, 2, 1)
	if err != nil {
		t.Fatalf("failed to list runs with offset: %v", err)
	}
	if len(page) != 2 || page[0].ID != "run-b" {
		t.Errorf("expected page [run-b run-a], got %v", page)
	}
}

// TestEventOperations tests event append and retrieval
func TestEventOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	run := &Run{
		ID:         "run-001",
		ConfigPath: "/configs/train.yaml",
		ConfigHash: "hash",
		Backend:    "dryrun",
		Device:     "cpu",
		Status:     RunStatusRunning,
		StartedAt:  now,
		Manifest:   "{}",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	events := []*Event{
		{RunID: &run.ID, Level: EventLevelInfo, Message: "run started", Timestamp: now},
		{RunID: &run.ID, Level: EventLevelInfo, Message: "epoch complete", Timestamp: now.Add(time.Second)},
		{RunID: &run.ID, Level: EventLevelError, Message: "trainer failed", Timestamp: now.Add(2 * time.Second)},
	}
	for _, e := range events {
		if err := store.AppendEvent(ctx, e); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
		if e.ID == 0 {
			t.Error("expected event ID to be assigned")
		}
	}

	// All events for the run
	got, err := store.GetEvents(ctx, &run.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Message != "run started" {
		t.Errorf("expected oldest event first, got %s", got[0].Message)
	}

	// Filter by level
	level := EventLevelError
	errs, err := store.GetEvents(ctx, &run.ID, &level, 10, 0)
	if err != nil {
		t.Fatalf("failed to get error events: %v", err)
	}
	if len(errs) != 1 || errs[0].Message != "trainer failed" {
		t.Errorf("expected single error event, got %v", errs)
	}
}

// TestTransactions tests basic transaction support
func TestTransactions(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	if err := store.RollbackTx(tx); err != nil {
		t.Fatalf("failed to rollback transaction: %v", err)
	}

	tx, err = store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	if err := store.CommitTx(tx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}
}
