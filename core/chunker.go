package core

import (
	"fmt"
	"strings"
)

// RenderSegment produces the one-line form a segment takes inside a
// prompt: "[MM:SS] text" plus a trailing newline.
func RenderSegment(seg TranscriptSegment) string {
	return fmt.Sprintf("[%s] %s\n", FormatTime(seg.Start), seg.Text)
}

// RenderTranscript concatenates the rendered lines of all segments.
func RenderTranscript(segments []TranscriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(RenderSegment(seg))
	}
	return b.String()
}

// ChunkTranscript partitions segments into ordered chunks whose
// rendered text stays within budgetChars. The line that crosses the
// budget is still appended to the current chunk before it closes, so a
// chunk can exceed the budget by at most one line. Every segment lands
// in exactly one chunk and order is preserved; an empty transcript
// yields no chunks.
func ChunkTranscript(segments []TranscriptSegment, budgetChars int) []TranscriptChunk {
	if len(segments) == 0 {
		return nil
	}

	var chunks []TranscriptChunk
	var cur []TranscriptSegment
	var text strings.Builder

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, TranscriptChunk{Segments: cur, Text: text.String()})
		cur = nil
		text.Reset()
	}

	for _, seg := range segments {
		line := RenderSegment(seg)
		cur = append(cur, seg)
		text.WriteString(line)
		if text.Len() > budgetChars {
			flush()
		}
	}
	flush()
	return chunks
}
