// Package transcript fetches YouTube caption tracks and maps them to
// ordered transcript segments.
package transcript

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MisbahAN/ChatVid-AI/core"
)

// Fetcher retrieves caption tracks over HTTP and remembers the last
// fetched video so repeated requests against the same URL stay local.
// Only one transcript is cached per process: a new video evicts the
// previous one.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	cachePath  string

	mu           sync.Mutex
	cachedID     string
	cachedResult []core.TranscriptSegment
}

// NewFetcher builds a Fetcher that mirrors the cached transcript into
// dataDir/transcript.json. An empty dataDir disables the file mirror.
func NewFetcher(dataDir string) *Fetcher {
	cachePath := ""
	if dataDir != "" {
		cachePath = filepath.Join(dataDir, "transcript.json")
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://www.youtube.com",
		cachePath:  cachePath,
	}
}

// VideoID extracts the v query parameter from a YouTube watch URL.
func VideoID(videoURL string) (string, error) {
	parsed, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("parse video url: %w", err)
	}
	id := parsed.Query().Get("v")
	if id == "" {
		return "", fmt.Errorf("invalid YouTube URL: 'v' parameter not found")
	}
	return id, nil
}

// Fetch returns the ordered caption segments for videoURL. A video
// without captions yields an empty slice and no error; only a
// malformed URL or a transport failure is an error.
func (f *Fetcher) Fetch(videoURL string) ([]core.TranscriptSegment, error) {
	videoID, err := VideoID(videoURL)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.cachedID == videoID {
		segs := f.cachedResult
		f.mu.Unlock()
		return segs, nil
	}
	f.mu.Unlock()

	log.Printf("Fetching transcript for video ID: %s", videoID)

	trackURL, err := f.captionTrackURL(videoID)
	if err != nil {
		return nil, err
	}
	var segments []core.TranscriptSegment
	if trackURL == "" {
		log.Printf("No caption track for video %s", videoID)
	} else {
		segments, err = f.fetchTrack(trackURL)
		if err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	f.cachedID = videoID
	f.cachedResult = segments
	f.mu.Unlock()
	f.mirrorToDisk(videoID, segments)

	return segments, nil
}

// captionTrackURL scrapes the watch page for the caption track list
// and returns the URL of the best track, preferring English. An empty
// return with nil error means the video has no captions.
func (f *Fetcher) captionTrackURL(videoID string) (string, error) {
	pageURL := f.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := f.get(pageURL)
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}

	tracks, err := parseCaptionTracks(body)
	if err != nil {
		log.Printf("Parse caption tracks for %s: %v", videoID, err)
		return "", nil
	}
	if len(tracks) == 0 {
		return "", nil
	}
	best := tracks[0]
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			best = t
			break
		}
	}
	return best.BaseURL, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

// parseCaptionTracks pulls the "captionTracks" JSON array out of the
// watch page's embedded player response.
func parseCaptionTracks(page string) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	i := strings.Index(page, marker)
	if i < 0 {
		return nil, nil
	}
	rest := page[i+len(marker):]
	end := strings.Index(rest, `]`)
	if end < 0 {
		return nil, fmt.Errorf("unterminated captionTracks array")
	}
	raw := rest[:end+1]

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("decode captionTracks: %w", err)
	}
	return tracks, nil
}

type timedTextXML struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// fetchTrack downloads and decodes one timedtext caption document.
func (f *Fetcher) fetchTrack(trackURL string) ([]core.TranscriptSegment, error) {
	body, err := f.get(trackURL)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}

	var doc timedTextXML
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode caption track: %w", err)
	}

	segments := make([]core.TranscriptSegment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, core.TranscriptSegment{
			Text:     text,
			Start:    t.Start,
			Duration: t.Dur,
		})
	}
	return segments, nil
}

func (f *Fetcher) get(u string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept-Language", "en-US,en")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mirrorToDisk writes the cached transcript to the cache file. Best
// effort; a write failure only logs.
func (f *Fetcher) mirrorToDisk(videoID string, segments []core.TranscriptSegment) {
	if f.cachePath == "" {
		return
	}
	payload := struct {
		VideoID  string                   `json:"video_id"`
		Segments []core.TranscriptSegment `json:"segments"`
	}{VideoID: videoID, Segments: segments}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(f.cachePath, data, 0644); err != nil {
		log.Printf("Write transcript cache: %v", err)
	}
}
