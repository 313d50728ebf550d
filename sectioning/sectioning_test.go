package sectioning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MisbahAN/ChatVid-AI/core"
	"github.com/MisbahAN/ChatVid-AI/llm"
)

const videoURL = "https://www.youtube.com/watch?v=abc"

func transcriptFixture() []core.TranscriptSegment {
	return []core.TranscriptSegment{
		{Text: "intro", Start: 0, Duration: 60},
		{Text: "topic A", Start: 65, Duration: 60},
		{Text: "topic A detail", Start: 130, Duration: 60},
	}
}

func TestSectionsSingleChunk(t *testing.T) {
	mock := &llm.MockClient{
		CompleteResponses: []string{
			`[{"start": "00:00", "end": "01:05", "summary": "Intro"},
			  {"start": "01:05", "end": "03:10", "summary": "Topic A"}]`,
		},
	}
	agg := NewAggregator(mock, 10000)

	sections := agg.Sections(context.Background(), transcriptFixture(), videoURL)

	if len(mock.CompleteCalls) != 1 {
		t.Fatalf("expected exactly one reasoning call, got %d", len(mock.CompleteCalls))
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[0].Link != videoURL+"&t=0s" {
		t.Errorf("first link = %q, want %q", sections[0].Link, videoURL+"&t=0s")
	}
	if sections[1].Link != videoURL+"&t=65s" {
		t.Errorf("second link = %q, want %q", sections[1].Link, videoURL+"&t=65s")
	}
}

func TestSectionsPromptContainsTranscript(t *testing.T) {
	mock := &llm.MockClient{CompleteResponses: []string{"[]"}}
	agg := NewAggregator(mock, 10000)

	agg.Sections(context.Background(), transcriptFixture(), videoURL)

	prompt := mock.CompleteCalls[0]
	for _, want := range []string{"[00:00] intro", "[01:05] topic A", "[02:10] topic A detail"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing line %q", want)
		}
	}
}

func TestSectionsStripsCodeFence(t *testing.T) {
	mock := &llm.MockClient{
		CompleteResponses: []string{
			"```json\n[{\"start\": \"00:00\", \"end\": \"00:30\", \"summary\": \"Fenced\"}]\n```",
		},
	}
	agg := NewAggregator(mock, 10000)

	sections := agg.Sections(context.Background(), transcriptFixture(), videoURL)
	if len(sections) != 1 || sections[0].Summary != "Fenced" {
		t.Fatalf("fenced output not parsed: %+v", sections)
	}
}

func TestSectionsFailedChunkContributesNothing(t *testing.T) {
	// Two chunks: first response unparsable, second fine. The batch
	// survives with the second chunk's sections only.
	segments := []core.TranscriptSegment{
		{Text: strings.Repeat("a", 80), Start: 0, Duration: 30},
		{Text: strings.Repeat("b", 80), Start: 30, Duration: 30},
	}
	mock := &llm.MockClient{
		CompleteResponses: []string{
			"this is not json",
			`[{"start": "00:30", "end": "01:00", "summary": "Second chunk"}]`,
		},
	}
	agg := NewAggregator(mock, 50)

	sections := agg.Sections(context.Background(), segments, videoURL)
	if len(mock.CompleteCalls) != 2 {
		t.Fatalf("expected 2 reasoning calls, got %d", len(mock.CompleteCalls))
	}
	if len(sections) != 1 || sections[0].Summary != "Second chunk" {
		t.Fatalf("got %+v, want only the second chunk's section", sections)
	}
}

func TestSectionsTransportErrorNotFatal(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: strings.Repeat("a", 80), Start: 0, Duration: 30},
		{Text: strings.Repeat("b", 80), Start: 30, Duration: 30},
	}
	mock := &llm.MockClient{
		CompleteErrs: []error{errors.New("service unreachable"), nil},
		CompleteResponses: []string{
			"",
			`[{"start": "00:30", "end": "01:00", "summary": "Survivor"}]`,
		},
	}
	agg := NewAggregator(mock, 50)

	sections := agg.Sections(context.Background(), segments, videoURL)
	if len(sections) != 1 || sections[0].Summary != "Survivor" {
		t.Fatalf("got %+v, want the surviving chunk's section", sections)
	}
}

func TestSectionsEmptyTranscript(t *testing.T) {
	mock := &llm.MockClient{}
	agg := NewAggregator(mock, 10000)

	sections := agg.Sections(context.Background(), nil, videoURL)
	if len(sections) != 0 {
		t.Fatalf("empty transcript produced sections: %+v", sections)
	}
	if len(mock.CompleteCalls) != 0 {
		t.Fatalf("empty transcript still issued %d reasoning calls", len(mock.CompleteCalls))
	}
}

func TestParseSectionsRejectsMissingFields(t *testing.T) {
	if _, err := parseSections(`[{"summary": "no times"}]`); err == nil {
		t.Error("section without start/end parsed successfully")
	}
	if _, err := parseSections(`{"start": "00:00"}`); err == nil {
		t.Error("non-array payload parsed successfully")
	}
}
