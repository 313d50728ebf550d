package core

import (
	"strings"
	"testing"
)

func TestFormatParseRoundTrip(t *testing.T) {
	for s := 0; s < 3600; s++ {
		ts := FormatTime(float64(s))
		got, err := ParseTimestamp(ts)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) failed: %v", ts, err)
		}
		if got != s {
			t.Fatalf("round trip for %d seconds: got %d", s, got)
		}
	}
}

func TestFormatTimeTruncatesAndClamps(t *testing.T) {
	if got := FormatTime(135.9); got != "02:15" {
		t.Errorf("FormatTime(135.9) = %q, want \"02:15\"", got)
	}
	if got := FormatTime(-3); got != "00:00" {
		t.Errorf("FormatTime(-3) = %q, want \"00:00\"", got)
	}
	// Minutes widen past two digits beyond 99 minutes.
	if got := FormatTime(6000); got != "100:00" {
		t.Errorf("FormatTime(6000) = %q, want \"100:00\"", got)
	}
}

func TestParseTimestampRejectsMalformed(t *testing.T) {
	bad := []string{"", "abc", "2:15", "002:15", "02-15", "02:155", "02:75", "02:15 extra"}
	for _, in := range bad {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want FormatError", in)
		}
	}
}

func TestTimestampLink(t *testing.T) {
	base := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got := TimestampLink(base, "02:15"); got != base+"&t=135s" {
		t.Errorf("TimestampLink = %q, want %q", got, base+"&t=135s")
	}
	// Unparsable stamps fall back to the plain URL.
	if got := TimestampLink(base, "2:15"); got != base {
		t.Errorf("TimestampLink fallback = %q, want %q", got, base)
	}
}

func TestHyperlinkTimestamps(t *testing.T) {
	base := "https://www.youtube.com/watch?v=abc"
	in := "Intro at 00:43, again at 01:25. Not a stamp: 1:25."
	out := HyperlinkTimestamps(in, base)

	for _, want := range []string{
		`<a href="` + base + `&t=43s" target="_blank">00:43</a>`,
		`<a href="` + base + `&t=85s" target="_blank">01:25</a>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "Not a stamp: 1:25.") {
		t.Errorf("non-matching text changed:\n%s", out)
	}
}

func TestHyperlinkTimestampsLeavesPlainTextAlone(t *testing.T) {
	base := "https://example.com/watch?v=x"
	in := "no timestamps here"
	if out := HyperlinkTimestamps(in, base); out != in {
		t.Errorf("text without stamps changed: %q", out)
	}
}

func TestCountTimestamps(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"plain answer", 0},
		{"see 00:10", 1},
		{"00:10 and 02:30 and 99:59", 3},
		{"not 1:23", 0},
	}
	for _, c := range cases {
		if got := CountTimestamps(c.text); got != c.want {
			t.Errorf("CountTimestamps(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}
