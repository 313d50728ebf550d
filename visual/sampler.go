// Package visual implements the frame pipeline behind visual search:
// sampling frames out of a video, enriching them with descriptions and
// embeddings, and finding the frame closest to a query.
package visual

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MisbahAN/ChatVid-AI/core"
)

// Sampler extracts a time-ordered set of downscaled frames from a
// video at a fixed interval.
type Sampler struct {
	DataDir     string
	IntervalSec int
}

func NewSampler(dataDir string, intervalSec int) *Sampler {
	return &Sampler{DataDir: dataDir, IntervalSec: intervalSec}
}

func (s *Sampler) framesDir() string {
	return filepath.Join(s.DataDir, "frames")
}

// Sample downloads the video and grabs one 320x180 frame at each
// multiple of the interval below the video duration. Offsets that fail
// to decode are skipped, so the result can have gaps in the ladder.
// Any frame set from a previous call is discarded first.
func (s *Sampler) Sample(videoURL string) ([]core.Frame, error) {
	framesDir := s.framesDir()
	if err := os.RemoveAll(framesDir); err != nil {
		return nil, fmt.Errorf("reset frames dir: %w", err)
	}
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	videoPath, err := s.downloadVideo(videoURL)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer os.Remove(videoPath)

	duration, err := probeDuration(videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	log.Printf("Extracting frames every %ds from video (%.0fs)", s.IntervalSec, duration)

	frames := make([]core.Frame, 0, int(duration)/s.IntervalSec+1)
	for t := 0; float64(t) < duration; t += s.IntervalSec {
		framePath := filepath.Join(framesDir, fmt.Sprintf("frame_%d.jpg", t))
		if err := grabFrame(videoPath, t, framePath); err != nil {
			log.Printf("Frame at %ds failed to decode, skipping: %v", t, err)
			continue
		}
		frames = append(frames, core.Frame{TimestampSec: t, Path: framePath})
	}

	log.Printf("Extracted %d frames", len(frames))
	return frames, nil
}

// downloadVideo fetches the video with yt-dlp, merging the best mp4
// streams, into the sampler's data dir.
func (s *Sampler) downloadVideo(videoURL string) (string, error) {
	outputFile := filepath.Join(s.DataDir, "temp_video.mp4")
	_ = os.Remove(outputFile)
	cmd := exec.Command("yt-dlp",
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/mp4",
		"--merge-output-format", "mp4",
		"-o", outputFile,
		videoURL,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return outputFile, nil
}

// grabFrame decodes the single frame at offset sec, scaled to 320x180.
func grabFrame(videoPath string, sec int, outPath string) error {
	err := runFFmpeg([]string{
		"-y",
		"-ss", strconv.Itoa(sec),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", "scale=320:180",
		"-q:v", "2",
		outPath,
	})
	if err != nil {
		return err
	}
	// ffmpeg exits zero on some dry seeks past the last keyframe; a
	// missing or empty file still counts as a decode failure.
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("no frame produced at %ds", sec)
	}
	return nil
}

func runFFmpeg(args []string) error {
	cmd := exec.Command("ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func probeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
}
