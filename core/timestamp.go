package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// timestampPattern matches the two-digit MM:SS form used everywhere in
// prompts and model output. Minutes past 99 render wider via FormatTime
// and therefore never match; that asymmetry is inherited product
// behavior, not a format guarantee.
var timestampPattern = regexp.MustCompile(`\b(\d{2}):(\d{2})\b`)

// FormatError reports a string that is not a valid MM:SS timestamp.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timestamp %q", e.Input)
}

// FormatTime converts seconds to the MM:SS form, zero-padded to two
// digits each. The minutes field grows past two digits for videos over
// 99 minutes.
func FormatTime(sec float64) string {
	sec = math.Max(sec, 0)
	m := int(sec) / 60
	s := int(sec) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ParseTimestamp converts an MM:SS string back to total whole seconds.
// Anything that is not exactly two digits, a colon, and two digits with
// the seconds field below 60 fails with a FormatError.
func ParseTimestamp(ts string) (int, error) {
	m := timestampPattern.FindStringSubmatch(ts)
	if m == nil || m[0] != ts {
		return 0, &FormatError{Input: ts}
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &FormatError{Input: ts}
	}
	seconds, err := strconv.Atoi(m[2])
	if err != nil || seconds > 59 {
		return 0, &FormatError{Input: ts}
	}
	return minutes*60 + seconds, nil
}

// TimestampLink appends a t= query parameter for ts to the video URL.
// On an unparsable timestamp it returns the URL unchanged; a bad stamp
// degrades to a plain link rather than an error.
func TimestampLink(videoURL, ts string) string {
	total, err := ParseTimestamp(ts)
	if err != nil {
		return videoURL
	}
	return fmt.Sprintf("%s&t=%ds", videoURL, total)
}

// HyperlinkTimestamps wraps every MM:SS substring in text with an HTML
// anchor pointing at the matching offset of videoURL. The visible label
// stays the literal timestamp. Run this once, on raw model output;
// anchors produced here would match the pattern again on a second pass.
func HyperlinkTimestamps(text, videoURL string) string {
	return timestampPattern.ReplaceAllStringFunc(text, func(ts string) string {
		link := TimestampLink(videoURL, ts)
		return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, link, ts)
	})
}

// CountTimestamps reports how many MM:SS substrings text contains. The
// QA aggregator uses this as a proxy for how much time-grounded
// evidence a chunk's answer carries.
func CountTimestamps(text string) int {
	return len(timestampPattern.FindAllString(text, -1))
}
