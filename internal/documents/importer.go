package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/qti"
	"github.com/mind-engage/mindengage-cbt/internal/qti/parser"
	"github.com/mind-engage/mindengage-cbt/internal/storage"
)

var (
	ErrUnsupported = errors.New("unsupported document type")
	ErrNoContent   = errors.New("document has no usable content")
)

// QuestionSink receives the ready-made questions found in QTI packages.
type QuestionSink interface {
	AddQuestions(documentID string, qs []cbt.Question)
}

type Upload struct {
	OwnerID  string
	Filename string
	Title    string
	Subject  string
	Data     []byte
}

// Importer stores uploaded bytes as blobs and records a Document for them.
type Importer struct {
	lib    Library
	blobs  storage.BlobStore
	sink   QuestionSink
	logger *log.Logger
	newID  func() string
	now    func() time.Time
}

type ImporterOption func(*Importer)

func WithLogger(l *log.Logger) ImporterOption { return func(im *Importer) { im.logger = l } }

func NewImporter(lib Library, blobs storage.BlobStore, sink QuestionSink, opts ...ImporterOption) *Importer {
	im := &Importer{lib: lib, blobs: blobs, sink: sink, logger: log.Default(), newID: uuid.NewString, now: time.Now}
	for _, o := range opts {
		o(im)
	}
	return im
}

func (im *Importer) Import(ctx context.Context, up Upload) (Document, error) {
	name := filepath.Base(up.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "notes.txt"
	}
	d := Document{
		ID:        im.newID(),
		Title:     strings.TrimSpace(up.Title),
		OwnerID:   up.OwnerID,
		Subject:   strings.TrimSpace(up.Subject),
		CreatedAt: im.now().UTC(),
	}

	var qs []cbt.Question
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		mf, items, err := parser.ReadPackage(bytes.NewReader(up.Data), int64(len(up.Data)))
		if err != nil {
			return Document{}, fmt.Errorf("read qti package: %w", err)
		}
		qs, _ = qti.ToQuestions(items, d.ID)
		if len(qs) == 0 {
			return Document{}, fmt.Errorf("%s: %w", name, ErrNoContent)
		}
		d.Kind = KindQTI
		d.Text = questionText(qs)
		d.QuestionCount = len(qs)
		if d.Title == "" {
			d.Title = qti.TitleFromManifest(mf)
		}
	case ".txt", ".md", ".markdown", "":
		if !utf8.Valid(up.Data) {
			return Document{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
		}
		d.Kind = KindText
		d.Text = plainNotes(string(up.Data))
		if d.Text == "" {
			return Document{}, fmt.Errorf("%s: %w", name, ErrNoContent)
		}
	default:
		return Document{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	if d.Title == "" {
		d.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	key, err := im.blobs.Put(path.Join("documents", d.ID, name), bytes.NewReader(up.Data))
	if err != nil {
		return Document{}, fmt.Errorf("store blob: %w", err)
	}
	d.BlobKey = key
	if err := im.lib.Put(ctx, d); err != nil {
		_ = im.blobs.Delete(key)
		return Document{}, err
	}
	if len(qs) > 0 && im.sink != nil {
		im.sink.AddQuestions(d.ID, qs)
	}
	return d, nil
}

// Reload re-reads every stored QTI package into the sink and returns how many
// questions it restored. A package that cannot be read is logged and skipped.
func (im *Importer) Reload(ctx context.Context) (int, error) {
	if im.sink == nil {
		return 0, nil
	}
	docs, err := im.lib.List(ctx, ListOpts{Kind: KindQTI, Limit: 10000})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range docs {
		qs, err := im.questionsFor(d)
		if err != nil {
			im.logger.Printf("documents: reload %s: %v", d.ID, err)
			continue
		}
		im.sink.AddQuestions(d.ID, qs)
		n += len(qs)
	}
	return n, nil
}

func (im *Importer) questionsFor(d Document) ([]cbt.Question, error) {
	rc, err := im.blobs.Get(d.BlobKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	_, items, err := parser.ReadPackage(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	qs, _ := qti.ToQuestions(items, d.ID)
	return qs, nil
}

func questionText(qs []cbt.Question) string {
	var b strings.Builder
	for _, q := range qs {
		b.WriteString(q.Prompt)
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString(q.Explanation)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// plainNotes drops markdown block markers and emphasis, keeping one line per paragraph line.
func plainNotes(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "```") || strings.HasPrefix(l, "---") {
			continue
		}
		l = strings.TrimLeft(l, "#>*-+ \t")
		l = strings.NewReplacer("**", "", "__", "", "`", "").Replace(l)
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
