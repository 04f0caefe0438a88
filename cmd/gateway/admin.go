package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/events"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
	rbac "github.com/mind-engage/mindengage-cbt/internal/rbac"
	"github.com/mind-engage/mindengage-cbt/internal/sessions"
)

// mountAdminRoutes wires operator APIs under /admin.
func mountAdminRoutes(api chi.Router, mgr *sessions.Manager, evlog *events.EventRepo, bank *questions.Bank, im *documents.Importer, bankPath string) {
	api.Route("/admin", func(r chi.Router) {
		r.With(rbac.Require("admin:sessions")).Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]int{"active": mgr.Active()})
		})

		// GET /admin/events?after=<seq>&limit=<n>
		r.With(rbac.Require("admin:events")).Get("/events", func(w http.ResponseWriter, r *http.Request) {
			after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			recs, err := evlog.Since(r.Context(), after, limit)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if recs == nil {
				recs = []events.Record{}
			}
			respondJSON(w, http.StatusOK, recs)
		})

		// POST /admin/bank/reload re-reads bank files and stored QTI packages.
		r.With(rbac.Require("admin:bank")).Post("/bank/reload", func(w http.ResponseWriter, r *http.Request) {
			fromFiles := 0
			if bankPath != "" {
				n, err := bank.LoadDir(bankPath)
				if err != nil {
					http.Error(w, "bank: "+err.Error(), http.StatusInternalServerError)
					return
				}
				fromFiles = n
			}
			fromDocs, err := im.Reload(r.Context())
			if err != nil {
				http.Error(w, "documents: "+err.Error(), http.StatusInternalServerError)
				return
			}
			respondJSON(w, http.StatusOK, map[string]int{"bank_files": fromFiles, "documents": fromDocs, "total": bank.Len()})
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
