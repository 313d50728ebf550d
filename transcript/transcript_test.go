package transcript

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestVideoID(t *testing.T) {
	id, err := VideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=43s")
	if err != nil {
		t.Fatalf("VideoID failed: %v", err)
	}
	if id != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want dQw4w9WgXcQ", id)
	}

	if _, err := VideoID("https://www.youtube.com/"); err == nil {
		t.Error("URL without v parameter parsed successfully")
	}
}

func TestParseCaptionTracks(t *testing.T) {
	page := `...,"captionTracks":[{"baseUrl":"https://example.com/tt?lang=es","languageCode":"es"},{"baseUrl":"https://example.com/tt?lang=en","languageCode":"en"}],"audioTracks":...`
	tracks, err := parseCaptionTracks(page)
	if err != nil {
		t.Fatalf("parseCaptionTracks failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[1].LanguageCode != "en" {
		t.Errorf("second track = %+v", tracks[1])
	}
}

func TestParseCaptionTracksAbsent(t *testing.T) {
	tracks, err := parseCaptionTracks("<html>no captions rendered here</html>")
	if err != nil {
		t.Fatalf("parseCaptionTracks errored on caption-less page: %v", err)
	}
	if len(tracks) != 0 {
		t.Fatalf("got %d tracks from caption-less page", len(tracks))
	}
}

// newCaptionServer serves a fake watch page whose caption track points
// back at the same server's timedtext endpoint.
func newCaptionServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/watch"):
			fmt.Fprintf(w, `{"captionTracks":[{"baseUrl":"%s/timedtext","languageCode":"en"}]}`, srv.URL)
		case strings.HasPrefix(r.URL.Path, "/timedtext"):
			fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="1.36" dur="1.68">[&amp;#9835;&amp;#9835;&amp;#9835;]</text>
  <text start="18.64" dur="3.24">We&amp;#39;re no strangers to love</text>
  <text start="22.64" dur="4.32"></text>
</transcript>`)
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func TestFetchTrackDecoding(t *testing.T) {
	var hits atomic.Int64
	srv := newCaptionServer(t, &hits)
	defer srv.Close()

	f := NewFetcher("")
	segments, err := f.fetchTrack(srv.URL + "/timedtext")
	if err != nil {
		t.Fatalf("fetchTrack failed: %v", err)
	}
	// The empty text element is dropped.
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[1].Text != "We're no strangers to love" {
		t.Errorf("entities not unescaped: %q", segments[1].Text)
	}
	if segments[1].Start != 18.64 || segments[1].Duration != 3.24 {
		t.Errorf("timing wrong: %+v", segments[1])
	}
}

func TestFetchUsesProcessCache(t *testing.T) {
	var hits atomic.Int64
	srv := newCaptionServer(t, &hits)
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	f.baseURL = srv.URL
	videoURL := "https://www.youtube.com/watch?v=cachedvid"

	segs, err := f.Fetch(videoURL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	firstPass := hits.Load()

	again, err := f.Fetch(videoURL)
	if err != nil {
		t.Fatalf("cached Fetch failed: %v", err)
	}
	if hits.Load() != firstPass {
		t.Errorf("second Fetch hit the network: %d -> %d requests", firstPass, hits.Load())
	}
	if len(again) != len(segs) {
		t.Errorf("cached result differs: %d vs %d segments", len(again), len(segs))
	}
}
