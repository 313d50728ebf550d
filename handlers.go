package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/MisbahAN/ChatVid-AI/config"
	"github.com/MisbahAN/ChatVid-AI/core"
	"github.com/MisbahAN/ChatVid-AI/llm"
	"github.com/MisbahAN/ChatVid-AI/qa"
	"github.com/MisbahAN/ChatVid-AI/sectioning"
	"github.com/MisbahAN/ChatVid-AI/transcript"
	"github.com/MisbahAN/ChatVid-AI/visual"
)

type server struct {
	cfg        *config.Config
	client     llm.Client
	fetcher    *transcript.Fetcher
	sections   *sectioning.Aggregator
	qa         *qa.Aggregator
	sampler    *visual.Sampler
	frameIndex visual.FrameIndex
}

// newJobID returns a random identifier scoping one request's frame
// set in the index.
func newJobID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("job-%d", os.Getpid())
	}
	return fmt.Sprintf("%x", b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // answers carry <a> tags; keep them readable
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "write json error: %v", err)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

// fetchSegments resolves the transcript for a request. A transport
// failure degrades to an empty transcript; only a malformed URL is the
// caller's error.
func (s *server) fetchSegments(videoURL string) ([]core.TranscriptSegment, error) {
	if _, err := transcript.VideoID(videoURL); err != nil {
		return nil, err
	}
	segments, err := s.fetcher.Fetch(videoURL)
	if err != nil {
		log.Printf("Error fetching transcript: %v", err)
		return nil, nil
	}
	return segments, nil
}

func (s *server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	var req core.TranscriptRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	segments, err := s.fetchSegments(req.VideoURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if segments == nil {
		segments = []core.TranscriptSegment{}
	}
	writeJSON(w, http.StatusOK, segments)
}

func (s *server) sectionsHandler(w http.ResponseWriter, r *http.Request) {
	var req core.SectionsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	segments, err := s.fetchSegments(req.VideoURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// The sections route accepts a caller-supplied key; fall back to
	// the configured client when absent.
	agg := s.sections
	if req.APIKey != "" {
		agg = sectioning.NewAggregator(llm.NewClientWithKey(s.cfg, req.APIKey), s.cfg.SectionChunkChars)
	}

	sections := agg.Sections(r.Context(), segments, req.VideoURL)
	if sections == nil {
		sections = []core.Section{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *server) questionHandler(w http.ResponseWriter, r *http.Request) {
	var req core.QuestionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question required"})
		return
	}
	segments, err := s.fetchSegments(req.VideoURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	answer := s.qa.Answer(r.Context(), segments, req.Question, req.VideoURL)
	writeJSON(w, http.StatusOK, core.QuestionResponse{Answer: answer})
}

func (s *server) visualSearchHandler(w http.ResponseWriter, r *http.Request) {
	var req core.VisualSearchRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query required"})
		return
	}

	frames, err := s.sampler.Sample(req.VideoURL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	visual.EnrichFrames(r.Context(), s.client, frames)

	// Each request indexes and searches under its own job ID, so
	// concurrent searches never answer from another request's frames.
	// The frames are discarded once the request is answered.
	jobID := newJobID()
	if _, err := s.frameIndex.Replace(r.Context(), jobID, frames); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer func() {
		if err := s.frameIndex.Drop(context.Background(), jobID); err != nil {
			log.Printf("Error dropping frames for job %s: %v", jobID, err)
		}
	}()

	result, err := visual.SemanticSearch(r.Context(), s.client, s.frameIndex, jobID, req.Query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !result.Found {
		// No usable frame embedding: empty object, matching the
		// original contract.
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
