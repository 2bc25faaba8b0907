package library

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *MetadataStore {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "books.db"), nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id string) BookMetadataRecord {
	return BookMetadataRecord{
		ID:           id,
		LegacyID:     "mybook",
		FilePath:     "/books/mybook.epub",
		Title:        "My Book",
		LastModified: time.Unix(1700000000, 0),
		FileSize:     4096,
		LastRead:     time.Unix(1700000100, 0),
		Digest:       id + "ffffffffffffffffffffffffffffffffffffffffffffffff",
	}
}

func TestStoreUpsertAndGet(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("aaaaaaaaaaaaaaaa")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for an inserted record")
	}
	if got.Title != rec.Title || got.FilePath != rec.FilePath || got.Digest != rec.Digest {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
	if !got.LastModified.Equal(rec.LastModified) {
		t.Errorf("LastModified = %v, want %v", got.LastModified, rec.LastModified)
	}
}

func TestStoreGetAbsent(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get(missing) = %+v, want nil", got)
	}
}

func TestStoreUpsertReplacesSameID(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("aaaaaaaaaaaaaaaa")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	rec.Title = "Renamed"
	rec.FilePath = "/books/renamed.epub"
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("row count = %d, want 1", len(all))
	}
	if all[0].Title != "Renamed" {
		t.Errorf("Title = %q, want %q", all[0].Title, "Renamed")
	}
}

func TestStoreUpsertUpdatesLastRead(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("aaaaaaaaaaaaaaaa")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	rec.LastRead = time.Unix(1900000000, 0)
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.LastRead.Equal(rec.LastRead) {
		t.Errorf("LastRead = %v, want %v after re-import", got.LastRead, rec.LastRead)
	}
}

func TestStoreBySize(t *testing.T) {
	store := openTestStore(t)

	a := testRecord("aaaaaaaaaaaaaaaa")
	b := testRecord("bbbbbbbbbbbbbbbb")
	b.FileSize = 8192
	for _, rec := range []BookMetadataRecord{a, b} {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got, err := store.BySize(4096)
	if err != nil {
		t.Fatalf("BySize: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("BySize(4096) = %+v, want only %s", got, a.ID)
	}
}

func TestStoreByLegacyID(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("aaaaaaaaaaaaaaaa")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.ByLegacyID("mybook")
	if err != nil {
		t.Fatalf("ByLegacyID: %v", err)
	}
	if got == nil || got.ID != rec.ID {
		t.Errorf("ByLegacyID = %+v, want id %s", got, rec.ID)
	}
}

func TestStoreTouchLastRead(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("aaaaaaaaaaaaaaaa")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	at := time.Unix(1800000000, 0)
	if err := store.TouchLastRead(rec.ID, at); err != nil {
		t.Fatalf("TouchLastRead: %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.LastRead.Equal(at) {
		t.Errorf("LastRead = %v, want %v", got.LastRead, at)
	}
}

func TestStoreAllOrderedByLastRead(t *testing.T) {
	store := openTestStore(t)

	old := testRecord("aaaaaaaaaaaaaaaa")
	old.LastRead = time.Unix(1700000000, 0)
	recent := testRecord("bbbbbbbbbbbbbbbb")
	recent.LastRead = time.Unix(1800000000, 0)
	for _, rec := range []BookMetadataRecord{old, recent} {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[0].ID != recent.ID {
		t.Errorf("All order = %v, want most recently read first", all)
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/books/My Book (2nd ed).epub", "MyBook2nded"},
		{"simple.epub", "simple"},
		{"日本語.epub", ""},
	}
	for _, tt := range tests {
		if got := SanitizeID(tt.in); got != tt.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
