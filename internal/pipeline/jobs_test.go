package pipeline

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/doc"
)

func testRequest(n int) Request {
	req := Request{Persona: doc.PersonaQuery{Role: "Analyst", Job: "find risk factors"}}
	for i := 0; i < n; i++ {
		req.Documents = append(req.Documents, DocumentRef{Name: "doc.txt", Path: "doc.txt"})
	}
	return req
}

func TestNewJob_StartsPending(t *testing.T) {
	job := NewJob(testRequest(2))
	if job.Status != StatusPending {
		t.Fatalf("expected status %q, got %q", StatusPending, job.Status)
	}
	if len(job.ID) != 26 {
		t.Fatalf("expected 26-char ULID, got %q", job.ID)
	}
	if got := len(job.Request().Documents); got != 2 {
		t.Fatalf("expected 2 documents, got %d", got)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob(testRequest(1))

	before := job.UpdatedAt
	time.Sleep(time.Millisecond)
	job.SetRunning()
	if job.Status != StatusRunning {
		t.Fatalf("expected status %q, got %q", StatusRunning, job.Status)
	}
	if !job.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance after SetRunning")
	}

	job.SetResult(&Result{})
	if job.Status != StatusDone {
		t.Fatalf("expected status %q, got %q", StatusDone, job.Status)
	}

	snap := job.Snapshot()
	if snap.Result == nil {
		t.Error("expected result in snapshot of a done job")
	}
	if snap.Error != "" {
		t.Errorf("expected no error on a done job, got %q", snap.Error)
	}
}

func TestJob_SetFailed(t *testing.T) {
	job := NewJob(testRequest(1))
	job.SetRunning()
	job.SetFailed(errors.New("no documents could be analyzed (1 skipped)"))

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if !strings.Contains(snap.Error, "no documents") {
		t.Errorf("expected failure message in snapshot, got %q", snap.Error)
	}
	if snap.Result != nil {
		t.Error("failed job must not carry a result")
	}
}

func TestJob_SnapshotHidesResultWhilePending(t *testing.T) {
	job := NewJob(testRequest(3))
	snap := job.Snapshot()
	if snap.Result != nil {
		t.Error("pending job must not expose a result")
	}
	if snap.Documents != 3 {
		t.Errorf("expected 3 documents in snapshot, got %d", snap.Documents)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob(testRequest(1))
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != job.ID {
		t.Errorf("expected ID %q, got %q", job.ID, got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	store := NewJobStore(time.Hour)
	first := NewJob(testRequest(1))
	store.Put(first)
	time.Sleep(2 * time.Millisecond)
	second := NewJob(testRequest(1))
	store.Put(second)

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("expected newest job first, got %q", list[0].ID)
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob(testRequest(1))
	store.Put(expired)

	time.Sleep(100 * time.Millisecond)

	fresh := NewJob(testRequest(1))
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	store.Cleanup()
}

func TestGenerateULID_UniqueAndOrdered(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 200; i++ {
		id := generateULID()
		if len(id) != 26 {
			t.Fatalf("expected 26 chars, got %d in %q", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate ULID %q", id)
		}
		seen[id] = true
		if prev != "" && id <= prev {
			t.Fatalf("expected lexically increasing IDs, got %q after %q", id, prev)
		}
		prev = id
	}
}
