package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"studylog/pkg/domain"
)

func setupStore(t *testing.T) (context.Context, FileStore) {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return context.Background(), store
}

func TestSaveAndResolveUpload(t *testing.T) {
	ctx, store := setupStore(t)
	rel, err := store.SaveUpload(ctx, "2026-08-29", "123-abc-math-task-doc-p.png", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rel != "/uploads/2026-08-29/123-abc-math-task-doc-p.png" {
		t.Fatalf("unexpected record path %q", rel)
	}
	abs, err := store.ResolveUpload("2026-08-29", "123-abc-math-task-doc-p.png")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b, err := os.ReadFile(abs)
	if err != nil || string(b) != "bytes" {
		t.Fatalf("read back: %q %v", b, err)
	}
}

func TestSaveThumbnail(t *testing.T) {
	ctx, store := setupStore(t)
	rel, err := store.SaveThumbnail(ctx, "2026-08-29", "a.mp4.jpg", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}
	if rel != "/thumbnails/2026-08-29/a.mp4.jpg" {
		t.Fatalf("unexpected record path %q", rel)
	}
	if _, err := store.ResolveThumbnail("2026-08-29", "a.mp4.jpg"); err != nil {
		t.Fatalf("resolve thumbnail: %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx, store := setupStore(t)
	rel, err := store.SaveUpload(ctx, "2026-08-29", "f.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Remove(ctx, rel); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Second removal of the same path must succeed.
	if err := store.Remove(ctx, rel); err != nil {
		t.Fatalf("idempotent remove: %v", err)
	}
	if _, err := store.ResolveUpload("2026-08-29", "f.png"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("resolve after remove should be NotFound, got %v", err)
	}
}

func TestRemoveRejectsForeignPaths(t *testing.T) {
	ctx, store := setupStore(t)
	for _, p := range []string{"/etc/passwd", "uploads/2026-08-29/f", "/uploads/bare"} {
		if err := store.Remove(ctx, p); !domain.IsKind(err, domain.KindInvalidRequest) {
			t.Errorf("Remove(%q) = %v, want InvalidRequest", p, err)
		}
	}
}

func TestPathEscapeIsForbidden(t *testing.T) {
	ctx, store := setupStore(t)
	cases := []struct{ date, name string }{
		{"..", "x"},
		{"2026-08-29", "../../etc/passwd"},
		{"2026-08-29/..", "x"},
	}
	for _, tc := range cases {
		if _, err := store.SaveUpload(ctx, tc.date, tc.name, strings.NewReader("x")); !domain.IsKind(err, domain.KindForbidden) {
			t.Errorf("SaveUpload(%q, %q) = %v, want Forbidden", tc.date, tc.name, err)
		}
		if _, err := store.ResolveUpload(tc.date, tc.name); !domain.IsKind(err, domain.KindForbidden) {
			t.Errorf("ResolveUpload(%q, %q) = %v, want Forbidden", tc.date, tc.name, err)
		}
	}
}

func TestDotRunsInNamesAreContained(t *testing.T) {
	ctx, store := setupStore(t)
	// Only a whole ".." component escapes; dot runs inside a filename
	// are ordinary characters.
	for _, name := range []string{"report..v2.png", "..hidden.png", "trailing...png"} {
		rel, err := store.SaveUpload(ctx, "2026-08-29", name, strings.NewReader("x"))
		if err != nil {
			t.Fatalf("SaveUpload(%q): %v", name, err)
		}
		if rel != "/uploads/2026-08-29/"+name {
			t.Fatalf("SaveUpload(%q) path = %q", name, rel)
		}
		if _, err := store.ResolveUpload("2026-08-29", name); err != nil {
			t.Fatalf("ResolveUpload(%q): %v", name, err)
		}
		if err := store.Remove(ctx, rel); err != nil {
			t.Fatalf("Remove(%q): %v", rel, err)
		}
	}
}

func TestStoredName(t *testing.T) {
	now := time.UnixMilli(1756400000000)
	name := StoredName(now, "math-task-doc", "my:weird/name.png")
	if !strings.HasPrefix(name, "1756400000000-") {
		t.Fatalf("stored name missing timestamp prefix: %q", name)
	}
	if !strings.HasSuffix(name, "-math-task-doc-name.png") {
		t.Fatalf("stored name %q should end with task id and sanitized base name", name)
	}
	// Random segment keeps same-instant same-name uploads apart.
	if StoredName(now, "math-task-doc", "a.png") == StoredName(now, "math-task-doc", "a.png") {
		t.Fatal("two stored names for identical input should differ")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain.png", "plain.png"},
		{"report..v2.png", "report..v2.png"},
		{`c:\dir\evil.png`, "evil.png"},
		{"../../x.png", "x.png"},
		{"..", "file"},
		{"", "file"},
	}
	for _, tc := range cases {
		if got := sanitizeName(tc.in); got != tc.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
