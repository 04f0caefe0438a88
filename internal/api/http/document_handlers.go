package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-cbt/internal/auth/middleware"
	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/events"
	"github.com/mind-engage/mindengage-cbt/internal/metrics"
	"github.com/mind-engage/mindengage-cbt/internal/qti/export"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
	"github.com/mind-engage/mindengage-cbt/internal/storage"
)

const (
	maxUploadBytes  = 20 << 20
	maxExportedQtis = 100
)

// POST /documents (multipart: file, title, subject)
func UploadDocumentHandler(im *documents.Importer, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			badRequest(w, "file required")
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			badRequest(w, "read upload: "+err.Error())
			return
		}

		owner := auth.SubjectFromContext(r.Context())
		d, err := im.Import(r.Context(), documents.Upload{
			OwnerID:  owner,
			Filename: hdr.Filename,
			Title:    r.FormValue("title"),
			Subject:  r.FormValue("subject"),
			Data:     data,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		metrics.DocumentsImported.WithLabelValues(string(d.Kind)).Inc()
		if err := pub.Publish(r.Context(), events.Event{
			Type:      events.TypeDocumentImported,
			Key:       d.ID,
			OwnerID:   owner,
			Data:      map[string]any{"kind": d.Kind, "question_count": d.QuestionCount},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			log.Printf("documents: publish %s %s: %v", events.TypeDocumentImported, d.ID, err)
		}
		d.Text = ""
		respondJSON(w, http.StatusCreated, d)
	}
}

// GET /documents?kind=&mine=1&limit=&offset=
func ListDocumentsHandler(lib documents.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := paging(r)
		opts := documents.ListOpts{Kind: documents.Kind(r.URL.Query().Get("kind")), Limit: limit, Offset: offset}
		if r.URL.Query().Get("mine") == "1" {
			opts.OwnerID = auth.SubjectFromContext(r.Context())
		}
		ds, err := lib.List(r.Context(), opts)
		if err != nil {
			respondError(w, err)
			return
		}
		for i := range ds {
			ds[i].Text = ""
		}
		respondJSON(w, http.StatusOK, ds)
	}
}

// GET /documents/{id}
func GetDocumentHandler(lib documents.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := lib.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}

// GET /documents/{id}/file returns the uploaded original.
func DocumentFileHandler(lib documents.Library, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := lib.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		rc, err := bs.Get(d.BlobKey)
		if err != nil {
			respondError(w, err)
			return
		}
		defer rc.Close()
		ct := "application/octet-stream"
		switch d.Kind {
		case documents.KindQTI:
			ct = "application/zip"
		case documents.KindText:
			ct = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", "attachment; filename=\""+path.Base(d.BlobKey)+"\"")
		_, _ = io.Copy(w, rc)
	}
}

// GET /documents/{id}/qti exports the document's questions as a QTI package.
// Authored questions win; otherwise questions are generated from the text.
func ExportQTIHandler(lib documents.Library, bank *questions.Bank, src cbt.QuestionSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := lib.Get(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		qs, err := exportable(r.Context(), id, bank, src)
		if err != nil {
			respondError(w, err)
			return
		}
		pkg, err := export.BuildPackage(qs)
		if err != nil {
			respondError(w, err)
			return
		}
		name := strings.ReplaceAll(id, "\"", "") + ".zip"
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
		http.ServeContent(w, r, name, time.Now(), bytes.NewReader(pkg))
	}
}

func exportable(ctx context.Context, id string, bank *questions.Bank, src cbt.QuestionSource) ([]cbt.Question, error) {
	if qs := bank.Questions(id); len(qs) > 0 {
		return qs, nil
	}
	qs, err := src.GetQuestionsForSession(ctx, []string{id}, cbt.DifficultyMixed, maxExportedQtis)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("export %s: %w", id, cbt.ErrEmptyQuestionSet)
	}
	return qs, nil
}
