package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-cbt/internal/db"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestMultiPublishesToAll(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	err := Multi{a, Nop{}, b}.Publish(context.Background(), Event{Type: TypeSessionStarted, Key: "s1"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("fan out: a=%d b=%d", len(a.got), len(b.got))
	}
}

func TestEventRepo(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:events_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	repo := NewEventRepo(conn, "")
	at := time.Unix(1700000000, 0)
	for _, e := range []Event{
		{Type: TypeSessionStarted, Key: "s1", OwnerID: "u1", CreatedAt: at},
		{Type: TypeSessionSubmitted, Key: "s1", OwnerID: "u1", Data: map[string]int{"percentage": 80}, CreatedAt: at},
	} {
		if err := repo.Publish(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := repo.Since(ctx, 0, 10)
	if err != nil || len(recs) != 2 {
		t.Fatalf("since = %+v, %v", recs, err)
	}
	if recs[0].SiteID != "local" || recs[1].Type != TypeSessionSubmitted || recs[1].CreatedAt != at.Unix() {
		t.Fatalf("records = %+v", recs)
	}
	var e Event
	if err := json.Unmarshal([]byte(recs[1].DataJSON), &e); err != nil || e.Key != "s1" {
		t.Fatalf("payload = %s, %v", recs[1].DataJSON, err)
	}

	rest, err := repo.Since(ctx, recs[0].Seq, 10)
	if err != nil || len(rest) != 1 || rest[0].Seq != recs[1].Seq {
		t.Fatalf("after first = %+v, %v", rest, err)
	}
}
