package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/models"
	"github.com/zrougamed/cerberus-watch/internal/testutil"
)

type recorder struct {
	mu        sync.Mutex
	snapshots []models.Snapshot
	errs      []error
	closes    int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnSnapshot: func(s models.Snapshot) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.snapshots = append(r.snapshots, s)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
		OnClose: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.closes++
		},
	}
}

func (r *recorder) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots), len(r.errs), r.closes
}

func waitDone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("subscription did not finish")
	}
}

func TestSubscribeDeliversInOrderThenReportsServerClose(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetStream(false,
		testutil.SnapshotFrame(models.Snapshot{Running: true, Duration: 15, Stats: models.Stats{TotalPackets: 10}}),
		testutil.SnapshotFrame(models.Snapshot{Running: true, Duration: 15, Stats: models.Stats{TotalPackets: 20}}),
	)

	rec := &recorder{}
	sub := Subscribe(context.Background(), nil, backend.URL()+testutil.STREAM_PATH, rec.hooks())
	waitDone(t, sub)

	snaps, errs, closes := rec.counts()
	if snaps != 2 {
		t.Fatalf("got %d snapshots; want 2", snaps)
	}
	if rec.snapshots[0].Stats.TotalPackets != 10 || rec.snapshots[1].Stats.TotalPackets != 20 {
		t.Errorf("snapshots out of order: %+v", rec.snapshots)
	}
	if errs != 1 || !errors.Is(rec.errs[0], ErrStreamClosed) {
		t.Errorf("errors = %v; want one ErrStreamClosed", rec.errs)
	}
	if closes != 1 {
		t.Errorf("OnClose called %d times; want 1", closes)
	}
}

func TestSubscribeMalformedMessageEndsSubscription(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetStream(true,
		testutil.SnapshotFrame(models.Snapshot{Running: true, Duration: 15, Stats: models.Stats{TotalPackets: 10}}),
		`{"running": tru`,
		testutil.SnapshotFrame(models.Snapshot{Running: true, Duration: 15, Stats: models.Stats{TotalPackets: 30}}),
	)

	rec := &recorder{}
	sub := Subscribe(context.Background(), nil, backend.URL()+testutil.STREAM_PATH, rec.hooks())
	waitDone(t, sub)

	snaps, errs, _ := rec.counts()
	if snaps != 1 {
		t.Errorf("got %d snapshots; want 1", snaps)
	}
	if errs != 1 || !errors.Is(rec.errs[0], ErrMalformedSnapshot) {
		t.Errorf("errors = %v; want one ErrMalformedSnapshot", rec.errs)
	}
}

func TestSubscribeNullPayloadIsMalformed(t *testing.T) {
	for _, payload := range []string{`null`, `{}`, `{"running":true}`} {
		backend := testutil.NewFakeBackend(t)
		backend.SetStream(true, payload)

		rec := &recorder{}
		sub := Subscribe(context.Background(), nil, backend.URL()+testutil.STREAM_PATH, rec.hooks())
		waitDone(t, sub)

		snaps, errs, _ := rec.counts()
		if snaps != 0 {
			t.Errorf("payload %s: got %d snapshots; want 0", payload, snaps)
		}
		if errs != 1 || !errors.Is(rec.errs[0], ErrMalformedSnapshot) {
			t.Errorf("payload %s: errors = %v; want one ErrMalformedSnapshot", payload, rec.errs)
		}
	}
}

func TestCloseFromHookSuppressesError(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetStream(true,
		testutil.SnapshotFrame(models.Snapshot{Running: false, Duration: 15, Stats: models.Stats{TotalPackets: 500}}),
		testutil.SnapshotFrame(models.Snapshot{Running: false, Duration: 15, Stats: models.Stats{TotalPackets: 500}}),
	)

	rec := &recorder{}
	var sub *Subscription
	var subMu sync.Mutex
	hooks := rec.hooks()
	onSnapshot := hooks.OnSnapshot
	hooks.OnSnapshot = func(s models.Snapshot) {
		onSnapshot(s)
		subMu.Lock()
		defer subMu.Unlock()
		sub.Close()
	}

	subMu.Lock()
	sub = Subscribe(context.Background(), nil, backend.URL()+testutil.STREAM_PATH, hooks)
	subMu.Unlock()
	waitDone(t, sub)

	snaps, errs, closes := rec.counts()
	if snaps != 1 {
		t.Errorf("got %d snapshots; want 1", snaps)
	}
	if errs != 0 {
		t.Errorf("got errors %v after Close; want none", rec.errs)
	}
	if closes != 1 {
		t.Errorf("OnClose called %d times; want 1", closes)
	}

	testutil.WaitFor(t, 2*time.Second, "server side stream to end", func() bool {
		return backend.OpenStreams() == 0
	})
}

func TestSubscribeRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"content type", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			rec := &recorder{}
			sub := Subscribe(context.Background(), srv.Client(), srv.URL, rec.hooks())
			waitDone(t, sub)

			if _, errs, _ := rec.counts(); errs != 1 {
				t.Errorf("got %d errors; want 1", errs)
			}
		})
	}
}

func TestSubscribeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	sub := Subscribe(context.Background(), nil, url, rec.hooks())
	waitDone(t, sub)

	if _, errs, closes := rec.counts(); errs != 1 || closes != 1 {
		t.Errorf("errors=%d closes=%d; want 1 and 1", errs, closes)
	}
}

func TestParentContextCancelIsSilent(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetStream(true)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	sub := Subscribe(ctx, nil, backend.URL()+testutil.STREAM_PATH, rec.hooks())

	testutil.WaitFor(t, 2*time.Second, "stream connection", func() bool {
		return backend.StreamConnections() == 1
	})
	cancel()
	waitDone(t, sub)

	if _, errs, _ := rec.counts(); errs != 0 {
		t.Errorf("got errors %v after parent cancel; want none", rec.errs)
	}
}
