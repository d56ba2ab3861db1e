package complaint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/grouse/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "grouse.db")
	db, err := storage.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStorePutAndCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("Count = %d, want 0", n)
	}

	base := time.Date(2018, 7, 12, 18, 36, 58, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := Record{
			ID:       "id-" + string(rune('a'+i)),
			At:       base.Add(time.Duration(i) * time.Minute),
			Reporter: "roadrunner",
			Text:     "complaint number",
			Channel:  "foobar",
			Command:  "/webhook-collect",
		}
		if err := store.Put(ctx, rec); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	n, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
}

func TestSQLiteStoreRecent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2018, 7, 12, 18, 36, 58, 0, time.UTC)
	ids := []string{"first", "second", "third"}
	for i, id := range ids {
		rec := Record{
			ID:       id,
			At:       base.Add(time.Duration(i) * time.Hour),
			Reporter: "roadrunner",
			Text:     id,
		}
		if err := store.Put(ctx, rec); err != nil {
			t.Fatalf("Put %q: %v", id, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d records, want 2", len(recent))
	}
	if recent[0].ID != "third" || recent[1].ID != "second" {
		t.Errorf("Recent order = [%s %s], want [third second]", recent[0].ID, recent[1].ID)
	}
	if !recent[0].At.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Recent[0].At = %v, want %v", recent[0].At, base.Add(2*time.Hour))
	}

	none, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Recent(0) returned %d records, want 0", len(none))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	want := Record{
		ID:       "round-trip",
		At:       time.Date(2018, 7, 12, 18, 36, 58, 123456789, time.UTC),
		Reporter: "roadrunner",
		Text:     "the printer is on fire",
		Channel:  "foobar",
		Command:  "/complain",
	}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent returned %d records, want 1", len(got))
	}
	rec := got[0]
	if rec.ID != want.ID || rec.Reporter != want.Reporter || rec.Text != want.Text ||
		rec.Channel != want.Channel || rec.Command != want.Command {
		t.Errorf("Recent()[0] = %+v, want %+v", rec, want)
	}
	if !rec.At.Equal(want.At) {
		t.Errorf("At = %v, want %v", rec.At, want.At)
	}
}
