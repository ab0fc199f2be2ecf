package db

import "testing"

func TestSnapshotReadWrite(t *testing.T) {
	store := newTestStore(t)
	defer func() { _ = store.Close() }()

	if _, ok, err := store.ReadSnapshot("status"); err != nil || ok {
		t.Fatalf("expected no snapshot yet, ok=%v err=%v", ok, err)
	}

	if err := store.WriteSnapshot("status", 1000, `{"overall_status":"up"}`, 1000); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	snap, ok, err := store.ReadSnapshot("status")
	if err != nil || !ok {
		t.Fatalf("expected snapshot, ok=%v err=%v", ok, err)
	}
	if snap.GeneratedAt != 1000 || snap.PayloadJSON != `{"overall_status":"up"}` {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	if err := store.WriteSnapshot("status", 2000, `{"overall_status":"down"}`, 2000); err != nil {
		t.Fatalf("WriteSnapshot overwrite: %v", err)
	}
	snap, _, err = store.ReadSnapshot("status")
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.GeneratedAt != 2000 {
		t.Errorf("expected overwrite to win, got GeneratedAt=%d", snap.GeneratedAt)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	defer func() { _ = store.Close() }()

	if _, ok, err := store.GetSetting("flap_f"); err != nil || ok {
		t.Fatalf("expected unset key, ok=%v err=%v", ok, err)
	}

	if err := store.SetSetting("flap_f", "3"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	v, ok, err := store.GetSetting("flap_f")
	if err != nil || !ok || v != "3" {
		t.Fatalf("GetSetting: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := store.SetSetting("flap_f", "5"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	all, err := store.ListSettings()
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if all["flap_f"] != "5" {
		t.Errorf("expected overwritten value, got %q", all["flap_f"])
	}
}
