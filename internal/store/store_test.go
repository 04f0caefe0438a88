package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/db"
)

func snapshot(id, owner string) cbt.Snapshot {
	return cbt.Snapshot{
		Session: cbt.Session{
			ID:               id,
			OwnerID:          owner,
			Title:            "Practice test: 1 questions",
			Questions:        []cbt.Question{{ID: "q1", Prompt: "?", Options: []cbt.Option{{Label: "A", Text: "a"}, {Label: "B", Text: "b"}}, CorrectAnswer: "A", Difficulty: cbt.DifficultyEasy, Points: 1}},
			TimeLimitMinutes: 5,
			TotalQuestions:   1,
			Status:           cbt.StatusInProgress,
			CreatedAt:        time.Unix(1700000000, 0).UTC(),
		},
		Ledger:           cbt.Entries{"q1": {QuestionID: "q1", SelectedAnswer: "B", Answered: true}},
		RemainingSeconds: 120,
		Focus:            "q1",
	}
}

func result(id, owner string, at int64, pct int) cbt.Result {
	return cbt.Result{
		SessionID:      id,
		OwnerID:        owner,
		TotalQuestions: 1,
		Percentage:     pct,
		Subjects:       map[string]cbt.Bucket{},
		CompletedAt:    time.Unix(at, 0).UTC(),
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.LoadSnapshot(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing snapshot err = %v", err)
	}
	if err := s.SaveSnapshot(ctx, snapshot("s2", "u1")); err != nil {
		t.Fatal(err)
	}
	first := snapshot("s1", "u1")
	if err := s.SaveSnapshot(ctx, first); err != nil {
		t.Fatal(err)
	}
	first.RemainingSeconds = 60
	if err := s.SaveSnapshot(ctx, first); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadSnapshot(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.RemainingSeconds != 60 || got.Ledger["q1"].SelectedAnswer != "B" || got.Session.Questions[0].CorrectAnswer != "A" {
		t.Fatalf("snapshot = %+v", got)
	}
	all, err := s.ListSnapshots(ctx)
	if err != nil || len(all) != 2 || all[0].Session.ID != "s1" {
		t.Fatalf("list = %+v, %v", all, err)
	}
	if err := s.DeleteSnapshot(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSnapshot(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted snapshot err = %v", err)
	}

	if _, err := s.GetResult(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing result err = %v", err)
	}
	for _, r := range []cbt.Result{
		result("s1", "u1", 100, 50),
		result("s2", "u2", 300, 75),
		result("s3", "u1", 200, 100),
	} {
		if err := s.SaveResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	// the first result written for a session wins
	if err := s.SaveResult(ctx, result("s1", "u1", 100, 0)); err != nil {
		t.Fatal(err)
	}
	r, err := s.GetResult(ctx, "s1")
	if err != nil || r.Percentage != 50 {
		t.Fatalf("result = %+v, %v", r, err)
	}

	mine, err := s.ListResults(ctx, ResultListOpts{OwnerID: "u1"})
	if err != nil || len(mine) != 2 || mine[0].SessionID != "s3" || mine[1].SessionID != "s1" {
		t.Fatalf("owner list = %+v, %v", mine, err)
	}
	paged, err := s.ListResults(ctx, ResultListOpts{Limit: 1, Offset: 1})
	if err != nil || len(paged) != 1 || paged[0].SessionID != "s3" {
		t.Fatalf("paged = %+v, %v", paged, err)
	}
}

func TestInMemoryStore(t *testing.T) {
	exercise(t, NewInMemoryStore())
}

func TestSQLStore(t *testing.T) {
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:store_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	exercise(t, NewSQLStore(conn))
}

func TestPage(t *testing.T) {
	xs := []int{1, 2, 3, 4}
	if got := page(xs, 2, 1); len(got) != 2 || got[0] != 2 {
		t.Fatalf("page = %v", got)
	}
	if got := page(xs, 0, 10); len(got) != 0 {
		t.Fatalf("page past end = %v", got)
	}
	if got := page(xs, 0, 0); len(got) != 4 {
		t.Fatalf("page all = %v", got)
	}
}
