package db

import "testing"

func TestAcquireLock(t *testing.T) {
	store := newTestStore(t)
	defer func() { _ = store.Close() }()

	ok, err := store.AcquireLock("scheduler:tick", "worker-1", 1000, 55)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	ok, err = store.AcquireLock("scheduler:tick", "worker-2", 1010, 55)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to fail while lease is live")
	}

	// Past expiry, a new holder can take it.
	ok, err = store.AcquireLock("scheduler:tick", "worker-2", 1056, 55)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Fatal("expected acquire to succeed once the lease expired")
	}
}

func TestAcquireLockDistinctNames(t *testing.T) {
	store := newTestStore(t)
	defer func() { _ = store.Close() }()

	ok1, err := store.AcquireLock("scheduler:tick", "w", 1000, 55)
	if err != nil || !ok1 {
		t.Fatalf("AcquireLock scheduler:tick: ok=%v err=%v", ok1, err)
	}
	ok2, err := store.AcquireLock("analytics:daily-rollup:86400", "w", 1000, 600)
	if err != nil || !ok2 {
		t.Fatalf("AcquireLock rollup lease: ok=%v err=%v", ok2, err)
	}
}
