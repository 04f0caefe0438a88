package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/db"
	"github.com/mind-engage/mindengage-cbt/internal/qti/export"
	"github.com/mind-engage/mindengage-cbt/internal/storage"
)

type captureSink struct {
	mu  sync.Mutex
	got map[string][]cbt.Question
}

func (c *captureSink) AddQuestions(docID string, qs []cbt.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.got == nil {
		c.got = map[string][]cbt.Question{}
	}
	c.got[docID] = qs
}

func newImporter(t *testing.T, lib Library) (*Importer, *captureSink, *storage.FSStore) {
	t.Helper()
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sink := &captureSink{}
	im := NewImporter(lib, blobs, sink, WithLogger(log.New(io.Discard, "", 0)))
	n := 0
	im.newID = func() string { n++; return fmt.Sprintf("doc-%d", n) }
	im.now = func() time.Time { return time.Unix(int64(1700000000+n), 0) }
	return im, sink, blobs
}

func TestImportMarkdownNotes(t *testing.T) {
	lib := NewInMemoryLibrary()
	im, sink, blobs := newImporter(t, lib)

	notes := "# Photosynthesis\n\n- Plants convert **light** into chemical energy.\n```\ncode\n```\n> Chlorophyll absorbs `red` light.\n"
	d, err := im.Import(context.Background(), Upload{OwnerID: "u1", Filename: "bio.md", Data: []byte(notes)})
	if err != nil {
		t.Fatal(err)
	}
	want := "Photosynthesis\nPlants convert light into chemical energy.\ncode\nChlorophyll absorbs red light."
	if d.Text != want {
		t.Fatalf("text = %q", d.Text)
	}
	if d.Kind != KindText || d.Title != "bio" || d.OwnerID != "u1" {
		t.Fatalf("doc = %+v", d)
	}
	if len(sink.got) != 0 {
		t.Fatal("text notes produced bank questions")
	}

	rc, err := blobs.Get(d.BlobKey)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != notes {
		t.Fatal("blob does not hold the original upload")
	}
}

func TestImportRejects(t *testing.T) {
	im, _, _ := newImporter(t, NewInMemoryLibrary())
	ctx := context.Background()

	if _, err := im.Import(ctx, Upload{Filename: "scan.pdf", Data: []byte("%PDF")}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("pdf: %v", err)
	}
	if _, err := im.Import(ctx, Upload{Filename: "empty.txt", Data: []byte("\n  \n---\n")}); !errors.Is(err, ErrNoContent) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := im.Import(ctx, Upload{Filename: "bin.txt", Data: []byte{0xff, 0xfe, 0x00}}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("binary: %v", err)
	}
}

func TestImportQTIAndReload(t *testing.T) {
	lib := NewInMemoryLibrary()
	im, sink, _ := newImporter(t, lib)
	pkg, err := export.BuildPackage([]cbt.Question{{
		ID:            "i1",
		Prompt:        "What is 2+2?",
		Options:       []cbt.Option{{Label: "A", Text: "3"}, {Label: "B", Text: "4"}},
		CorrectAnswer: "B",
		Difficulty:    cbt.DifficultyEasy,
		Points:        1,
	}})
	if err != nil {
		t.Fatal(err)
	}

	d, err := im.Import(context.Background(), Upload{Filename: "math.zip", Title: "Arithmetic", Data: pkg})
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != KindQTI || d.QuestionCount != 1 || d.Title != "Arithmetic" {
		t.Fatalf("doc = %+v", d)
	}
	if qs := sink.got[d.ID]; len(qs) != 1 || qs[0].DocumentID != d.ID || qs[0].CorrectAnswer != "B" {
		t.Fatalf("bank got %+v", qs)
	}

	sink.got = nil
	n, err := im.Reload(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("reload n=%d err=%v", n, err)
	}
	if len(sink.got[d.ID]) != 1 {
		t.Fatal("reload did not restore questions")
	}
}

func TestReloadSkipsUnreadablePackages(t *testing.T) {
	ctx := context.Background()
	im, sink, blobs := newImporter(t, NewInMemoryLibrary())
	var docs []Document
	for _, id := range []string{"i1", "i2"} {
		pkg, err := export.BuildPackage([]cbt.Question{{
			ID:            id,
			Prompt:        "What is 2+2?",
			Options:       []cbt.Option{{Label: "A", Text: "3"}, {Label: "B", Text: "4"}},
			CorrectAnswer: "B",
			Difficulty:    cbt.DifficultyEasy,
			Points:        1,
		}})
		if err != nil {
			t.Fatal(err)
		}
		d, err := im.Import(ctx, Upload{Filename: id + ".zip", Data: pkg})
		if err != nil {
			t.Fatal(err)
		}
		docs = append(docs, d)
	}
	if err := blobs.Delete(docs[0].BlobKey); err != nil {
		t.Fatal(err)
	}

	sink.got = nil
	n, err := im.Reload(ctx)
	if err != nil || n != 1 {
		t.Fatalf("reload n=%d err=%v", n, err)
	}
	if len(sink.got[docs[0].ID]) != 0 || len(sink.got[docs[1].ID]) != 1 {
		t.Fatalf("restored = %+v", sink.got)
	}
}

func TestSQLLibrary(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:docs_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	lib := NewSQLLibrary(conn)

	base := time.Unix(1700000000, 0).UTC()
	for i, owner := range []string{"u1", "u2", "u1"} {
		d := Document{
			ID:        fmt.Sprintf("d%d", i),
			Title:     "Notes",
			OwnerID:   owner,
			Kind:      KindText,
			BlobKey:   "documents/x",
			Text:      "body",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := lib.Put(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := lib.Get(ctx, "d1")
	if err != nil || got.OwnerID != "u2" || !got.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := lib.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}

	mine, err := lib.List(ctx, ListOpts{OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != "d2" || mine[1].ID != "d0" {
		t.Fatalf("list = %+v", mine)
	}
	page, _ := lib.List(ctx, ListOpts{Kind: KindText, Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != "d1" {
		t.Fatalf("page = %+v", page)
	}

	docs, err := GetMany(ctx, lib, []string{"d2", "nope", "d0"})
	if err != nil || len(docs) != 2 || docs[0].ID != "d2" {
		t.Fatalf("get many = %+v %v", docs, err)
	}
}

func TestMemoryLibraryList(t *testing.T) {
	lib := NewInMemoryLibrary()
	ctx := context.Background()
	_ = lib.Put(ctx, Document{ID: "a", OwnerID: "u", CreatedAt: time.Unix(1, 0)})
	_ = lib.Put(ctx, Document{ID: "b", OwnerID: "u", CreatedAt: time.Unix(2, 0)})
	_ = lib.Put(ctx, Document{ID: "c", OwnerID: "v", CreatedAt: time.Unix(3, 0)})

	got, _ := lib.List(ctx, ListOpts{OwnerID: "u"})
	if len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("list = %+v", got)
	}
	if got, _ := lib.List(ctx, ListOpts{Offset: 5}); len(got) != 0 {
		t.Fatalf("offset past end = %+v", got)
	}
}
