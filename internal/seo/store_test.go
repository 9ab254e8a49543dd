package seo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/pagedeco/internal/origin"
)

const feedJSON = `{"total":2,"offset":0,"limit":2,"data":[
	{"path":"/express/","title":"Adobe Express","description":"Make it","column-left":"","column-right":""},
	{"path":"/express/create/logo","title":"Free Logo Maker","description":"Design a logo","column-left":"<p>Left</p>","column-right":"<p>Right</p>"}
]}`

func feedServer(t *testing.T, status int, body string, delay time.Duration) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != FeedPath {
			http.NotFound(w, r)
			return
		}
		time.Sleep(delay)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newStore(t *testing.T, server *httptest.Server) *Store {
	t.Helper()
	o, err := origin.NewHTTP(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(o, "")
}

func TestStore_Lookup(t *testing.T) {
	server, hits := feedServer(t, http.StatusOK, feedJSON, 0)
	store := newStore(t, server)
	ctx := context.Background()

	tests := []struct {
		path      string
		wantFound bool
		wantTitle string
	}{
		{"/express/create/logo", true, "Free Logo Maker"},
		{"/express/", true, "Adobe Express"},
		{"/express", false, ""},
		{"/express/create/logo/", false, ""},
		{"/EXPRESS/", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, ok := store.Lookup(ctx, tt.path)
			if ok != tt.wantFound {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.path, ok, tt.wantFound)
			}
			if rec.Title != tt.wantTitle {
				t.Errorf("Lookup(%q).Title = %q, want %q", tt.path, rec.Title, tt.wantTitle)
			}
		})
	}

	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("feed fetched %d times, want 1", got)
	}
}

func TestStore_ConcurrentFirstAccess(t *testing.T) {
	server, hits := feedServer(t, http.StatusOK, feedJSON, 50*time.Millisecond)
	store := newStore(t, server)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Lookup(context.Background(), "/express/"); !ok {
				t.Error("Lookup(/express/) not found")
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("feed fetched %d times, want 1", got)
	}
}

func TestStore_FailedFeedIsEmptyAndKept(t *testing.T) {
	server, hits := feedServer(t, http.StatusInternalServerError, "", 0)
	store := newStore(t, server)

	for i := 0; i < 3; i++ {
		if records := store.Records(context.Background()); len(records) != 0 {
			t.Fatalf("Records() = %v, want empty", records)
		}
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("feed fetched %d times, want 1", got)
	}
}

func TestStore_CanceledContextNotKept(t *testing.T) {
	server, hits := feedServer(t, http.StatusOK, feedJSON, 0)
	store := newStore(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if records := store.Records(ctx); len(records) != 0 {
		t.Errorf("Records(canceled) = %v, want empty", records)
	}

	if _, ok := store.Lookup(context.Background(), "/express/"); !ok {
		t.Error("Lookup after canceled load should fetch the feed")
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("feed fetched %d times, want 1", got)
	}
}

func TestNewStoreWithRecords(t *testing.T) {
	store := NewStoreWithRecords([]Record{{Path: "/a", Title: "A"}})

	rec, ok := store.Lookup(context.Background(), "/a")
	if !ok || rec.Title != "A" {
		t.Errorf("Lookup(/a) = %+v, %v", rec, ok)
	}
}
