package jobs

import (
	"sync"
	"testing"
)

// TestManagerRegistry verifies create/get and duplicate rejection.
func TestManagerRegistry(t *testing.T) {
	m := NewManager()
	s := NewState("job-1", Config{ChunkSize: 100, Concurrency: 5})

	if err := m.Create(s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Create(s); err != ErrDuplicateJob {
		t.Fatalf("second create error = %v, want %v", err, ErrDuplicateJob)
	}

	got, ok := m.Get("job-1")
	if !ok || got != s {
		t.Fatal("get should return the registered state")
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("get of unknown id should report !ok")
	}
}

// TestManagerSnapshotsOrder verifies creation-order listing.
func TestManagerSnapshotsOrder(t *testing.T) {
	m := NewManager()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.Create(NewState(id, Config{})); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	snaps := m.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	for i, want := range []string{"a", "b", "c"} {
		if snaps[i].ID != want {
			t.Errorf("snapshot[%d].ID = %s, want %s", i, snaps[i].ID, want)
		}
	}
}

// TestStateConcurrentUpdates hammers Update from many goroutines and
// checks the counters come out exact.
func TestStateConcurrentUpdates(t *testing.T) {
	s := NewState("job-1", Config{})

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(p *Progress) {
				p.Processed++
				p.Successes++
				p.Logf("done one")
			})
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Processed != workers || snap.Successes != workers {
		t.Fatalf("processed=%d successes=%d, want %d each", snap.Processed, snap.Successes, workers)
	}
	if len(snap.Messages) != workers {
		t.Fatalf("got %d log lines, want %d", len(snap.Messages), workers)
	}
}

// TestSnapshotIsolation verifies a snapshot's log is a copy.
func TestSnapshotIsolation(t *testing.T) {
	s := NewState("job-1", Config{})
	s.Update(func(p *Progress) { p.Logf("first") })

	snap := s.Snapshot()
	s.Update(func(p *Progress) { p.Logf("second") })

	if len(snap.Messages) != 1 {
		t.Fatalf("snapshot mutated after the fact: %v", snap.Messages)
	}
	if s.Snapshot().Done {
		t.Fatal("job should not be done yet")
	}
	s.MarkDone()
	if !s.Snapshot().Done {
		t.Fatal("MarkDone not reflected in snapshot")
	}
}
