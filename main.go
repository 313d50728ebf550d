package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/MisbahAN/ChatVid-AI/config"
	"github.com/MisbahAN/ChatVid-AI/llm"
	"github.com/MisbahAN/ChatVid-AI/qa"
	"github.com/MisbahAN/ChatVid-AI/sectioning"
	"github.com/MisbahAN/ChatVid-AI/transcript"
	"github.com/MisbahAN/ChatVid-AI/visual"
)

func dataRoot() string { return filepath.Join(".", "data") }

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		config.PrintConfigInstructions()
		log.Fatalf("invalid config: %v", err)
	}

	if err := os.MkdirAll(dataRoot(), 0755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	client := llm.NewClient(cfg)
	s := &server{
		cfg:        cfg,
		client:     client,
		fetcher:    transcript.NewFetcher(dataRoot()),
		sections:   sectioning.NewAggregator(client, cfg.SectionChunkChars),
		qa:         qa.NewAggregator(client, cfg.QAChunkChars),
		sampler:    visual.NewSampler(dataRoot(), cfg.FrameInterval),
		frameIndex: visual.NewFrameIndex(cfg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transcript", s.transcriptHandler)
	mux.HandleFunc("/sections", s.sectionsHandler)
	mux.HandleFunc("/question", s.questionHandler)
	mux.HandleFunc("/visual-search", s.visualSearchHandler)

	addr := ":8000"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, withCORS(mux)))
}

// withCORS mirrors the permissive CORS policy of the original backend
// so the browser frontend can call from any origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
