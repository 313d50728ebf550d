// Package sectioning turns a transcript into an ordered list of
// timestamped section summaries via the reasoning service.
package sectioning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/MisbahAN/ChatVid-AI/core"
	"github.com/MisbahAN/ChatVid-AI/llm"
)

// Aggregator sections a transcript chunk by chunk. Each chunk gets one
// independent reasoning call; chunk outputs are concatenated in chunk
// order without any boundary merge.
type Aggregator struct {
	client      llm.Client
	budgetChars int
}

func NewAggregator(client llm.Client, budgetChars int) *Aggregator {
	return &Aggregator{client: client, budgetChars: budgetChars}
}

// Sections returns the section list for the transcript, each with a
// clickable link derived from its start stamp. An empty transcript, or
// a transcript where every chunk failed, yields an empty list.
func (a *Aggregator) Sections(ctx context.Context, segments []core.TranscriptSegment, videoURL string) []core.Section {
	chunks := core.ChunkTranscript(segments, a.budgetChars)
	log.Printf("Sectioning %d segments in %d chunks", len(segments), len(chunks))

	var sections []core.Section
	for i, chunk := range chunks {
		resp, err := a.client.Complete(ctx, sectionPrompt(chunk))
		if err != nil {
			log.Printf("Section chunk %d/%d failed: %v", i+1, len(chunks), err)
			continue
		}
		parsed, err := parseSections(resp)
		if err != nil {
			log.Printf("Section chunk %d/%d unparsable: %v\nRaw response: %s", i+1, len(chunks), err, resp)
			continue
		}
		for _, s := range parsed {
			s.Link = core.TimestampLink(videoURL, s.Start)
			sections = append(sections, s)
		}
	}
	return sections
}

// sectionPrompt builds the per-chunk prompt. Count guidance scales
// with the chunk's time span so short chunks yield few, longer
// sections and long chunks yield more.
func sectionPrompt(chunk core.TranscriptChunk) string {
	spanMin := (chunk.End() - chunk.Start()) / 60
	return fmt.Sprintf(`SYSTEM INSTRUCTION:
You are a helpful assistant that chunks YouTube video transcripts into useful summaries.
Always follow the user's format and constraints exactly.
Prefer longer coherent sections over frequent short ones.
Do not return more sections than what is explicitly allowed.
Avoid creating short fragments unless the topic changes.

USER REQUEST:
Break this transcript excerpt, covering %s to %s (about %.0f minutes), into meaningful sections.
Only use timestamps inside that range.

Each section should have:
- a start time
- an end time
- a 3-6 word summary of what's going on

Constraints:
- Return about 3-5 sections for 10 minutes of content
- Return about 15-20 for an hour of content
- Sections should be around 1-3 minutes each
- Don't create sections shorter than 30 seconds unless absolutely needed

Use this format:
[
{"start": "00:00", "end": "01:15", "summary": "Intro and purpose of video"},
...
]

Transcript:
%s`, core.FormatTime(chunk.Start()), core.FormatTime(chunk.End()), spanMin, chunk.Text)
}

// parseSections decodes the model's JSON section list. Output is often
// wrapped in a markdown code fence; strip it, then require a valid
// array of records. Any deviation fails closed.
func parseSections(raw string) ([]core.Section, error) {
	cleaned := stripCodeFence(raw)

	var sections []core.Section
	if err := json.Unmarshal([]byte(cleaned), &sections); err != nil {
		return nil, fmt.Errorf("decode section list: %w", err)
	}
	for i, s := range sections {
		if s.Start == "" || s.End == "" {
			return nil, fmt.Errorf("section %d missing start or end", i)
		}
	}
	return sections, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
