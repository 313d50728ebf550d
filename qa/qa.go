// Package qa answers free-text questions about a video, grounded in
// transcript timestamps.
package qa

import (
	"context"
	"fmt"
	"log"

	"github.com/MisbahAN/ChatVid-AI/core"
	"github.com/MisbahAN/ChatVid-AI/llm"
)

// Sentinel answers returned when no genuine answer can be produced.
const (
	NoTranscriptAnswer = "No transcript available for this video."
	NoAnswerFallback   = "Sorry, I couldn't find a good answer to your question in this video."
)

// Aggregator answers a question chunk by chunk and picks the response
// citing the most timestamps. Each chunk only ever sees its own
// excerpt; bounded input size is traded for global synthesis.
type Aggregator struct {
	client      llm.Client
	budgetChars int
}

func NewAggregator(client llm.Client, budgetChars int) *Aggregator {
	return &Aggregator{client: client, budgetChars: budgetChars}
}

// Answer returns the best chunk-local answer with its timestamps
// rewritten into hyperlinks against videoURL. An empty transcript
// short-circuits to the no-transcript sentinel without any reasoning
// call; if every chunk fails, the fallback sentinel is returned.
func (a *Aggregator) Answer(ctx context.Context, segments []core.TranscriptSegment, question, videoURL string) string {
	if len(segments) == 0 {
		return NoTranscriptAnswer
	}

	chunks := core.ChunkTranscript(segments, a.budgetChars)
	log.Printf("Answering question over %d chunks", len(chunks))

	best := ""
	bestCount := -1
	for i, chunk := range chunks {
		resp, err := a.client.Complete(ctx, questionPrompt(chunk, question))
		if err != nil {
			log.Printf("QA chunk %d/%d failed: %v", i+1, len(chunks), err)
			continue
		}
		// Timestamp density proxies how much concrete evidence this
		// chunk's excerpt supported. Ties keep the earlier chunk.
		count := core.CountTimestamps(resp)
		if count > bestCount {
			best = resp
			bestCount = count
		}
	}

	if bestCount < 0 {
		return NoAnswerFallback
	}
	return core.HyperlinkTimestamps(best, videoURL)
}

func questionPrompt(chunk core.TranscriptChunk, question string) string {
	return fmt.Sprintf(`You are a helpful assistant answering questions about a YouTube video.
Use only the transcript excerpt below, covering %s to %s.
Try to include the timestamp of relevant parts in your answer.

Transcript:
%s

Question: %s
Answer:`, core.FormatTime(chunk.Start()), core.FormatTime(chunk.End()), chunk.Text, question)
}
