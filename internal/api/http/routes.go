package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/events"
	"github.com/mind-engage/mindengage-cbt/internal/practice"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
	"github.com/mind-engage/mindengage-cbt/internal/rbac"
	"github.com/mind-engage/mindengage-cbt/internal/sessions"
	"github.com/mind-engage/mindengage-cbt/internal/storage"
)

type Deps struct {
	Sessions  *sessions.Manager
	Documents documents.Library
	Importer  *documents.Importer
	Bank      *questions.Bank
	Source    cbt.QuestionSource
	Practice  *practice.Service
	Blobs     storage.BlobStore
	Events    events.Publisher
	Defaults  cbt.Config // fills count, time limit and difficulty left out of POST /sessions
}

// Mount registers the API on a router that already runs JWTMiddleware.
func Mount(r chi.Router, d Deps) {
	if d.Events == nil {
		d.Events = events.Nop{}
	}

	r.Route("/sessions", func(sr chi.Router) {
		sr.With(rbac.Require("session:create")).Post("/", StartSessionHandler(d.Sessions, d.Defaults))

		view := rbac.RequireAny("session:view-own", "result:view-all")
		sr.With(view).Get("/{id}", GetSessionHandler(d.Sessions))
		sr.With(view).Get("/{id}/questions/{index}", GetQuestionHandler(d.Sessions))
		sr.With(view).Get("/{id}/result", ResultHandler(d.Sessions))

		answer := rbac.Require("session:answer")
		sr.With(answer).Post("/{id}/answers", AnswerHandler(d.Sessions))
		sr.With(answer).Post("/{id}/flags", FlagHandler(d.Sessions))
		sr.With(answer).Post("/{id}/focus", FocusHandler(d.Sessions))

		sr.With(rbac.Require("session:submit")).Post("/{id}/submit", SubmitHandler(d.Sessions))
		sr.With(rbac.Require("session:create")).Delete("/{id}", DiscardHandler(d.Sessions))
	})
	r.With(rbac.RequireAny("session:view-own", "result:view-all")).
		Get("/results", ListResultsHandler(d.Sessions))

	r.Route("/documents", func(dr chi.Router) {
		dr.With(rbac.Require("document:upload")).Post("/", UploadDocumentHandler(d.Importer, d.Events))
		dr.With(rbac.Require("document:view")).Get("/", ListDocumentsHandler(d.Documents))
		dr.With(rbac.Require("document:view")).Get("/{id}", GetDocumentHandler(d.Documents))
		dr.With(rbac.Require("document:view")).Get("/{id}/file", DocumentFileHandler(d.Documents, d.Blobs))
		dr.With(rbac.Require("document:export")).Get("/{id}/qti", ExportQTIHandler(d.Documents, d.Bank, d.Source))
	})

	r.With(rbac.Require("theory:practice")).Post("/theory/questions", TheoryQuestionsHandler(d.Practice))
	r.With(rbac.Require("theory:practice")).Post("/theory/grade", TheoryGradeHandler(d.Practice))
	r.With(rbac.Require("theory:practice")).Post("/practice/check", CheckHandler(d.Practice))
}
