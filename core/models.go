package core

// ========== Transcript ==========

// TranscriptSegment is one caption line as delivered by YouTube:
// the spoken text plus its start offset and duration in seconds.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptChunk is a contiguous run of segments whose rendered text
// fits the reasoning service's input budget. Segments is kept alongside
// the rendered Text so callers can recover the exact time range.
type TranscriptChunk struct {
	Segments []TranscriptSegment
	Text     string
}

// Start returns the start time of the chunk's first segment.
func (c TranscriptChunk) Start() float64 {
	if len(c.Segments) == 0 {
		return 0
	}
	return c.Segments[0].Start
}

// End returns the end time of the chunk's last segment.
func (c TranscriptChunk) End() float64 {
	if len(c.Segments) == 0 {
		return 0
	}
	last := c.Segments[len(c.Segments)-1]
	return last.Start + last.Duration
}

// ========== Sections ==========

type Section struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Summary string `json:"summary"`
	Link    string `json:"link"`
}

// ========== Visual search ==========

// Frame is one sampled video frame. Description and Embedding start
// empty and are filled in by the enrichment pipeline; a frame whose
// Embedding is nil never participates in search.
type Frame struct {
	TimestampSec int       `json:"timestamp"`
	Path         string    `json:"path"`
	Description  string    `json:"description"`
	Embedding    []float32 `json:"-"`
}

// SearchResult is the single best match for a visual query. Found is
// false when no frame carried a usable embedding.
type SearchResult struct {
	TimestampSec int     `json:"timestamp"`
	Score        float64 `json:"score"`
	Description  string  `json:"description"`
	Found        bool    `json:"-"`
}

// ========== HTTP request/response types ==========

type TranscriptRequest struct {
	VideoURL string `json:"video_url"`
}

type SectionsRequest struct {
	VideoURL string `json:"video_url"`
	APIKey   string `json:"api_key,omitempty"`
}

type QuestionRequest struct {
	VideoURL string `json:"video_url"`
	Question string `json:"question"`
}

type QuestionResponse struct {
	Answer string `json:"answer"`
}

type VisualSearchRequest struct {
	VideoURL string `json:"video_url"`
	Query    string `json:"query"`
}
