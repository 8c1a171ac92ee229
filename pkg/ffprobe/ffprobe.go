package ffprobe

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Result is the authoritative probe output for one source.
type Result struct {
	DurationSeconds float64
	Format          string
	SizeBytes       int64
	VideoStreams    int
	AudioStreams    int
	SubtitleStreams int
	Chapters        []Chapter
}

type Chapter struct {
	Start float64
	End   float64
	Title string
}

type Prober struct {
	binary  string
	timeout time.Duration
}

func NewProber(binary string, timeout time.Duration) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{
		binary:  binary,
		timeout: timeout,
	}
}

type ffprobeOutput struct {
	Streams  []ffprobeStream  `json:"streams"`
	Format   ffprobeFormat    `json:"format"`
	Chapters []ffprobeChapter `json:"chapters"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeChapter struct {
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

// Probe runs ffprobe against a URL (typically a presigned GET) and parses
// its JSON output. The call is bounded by the configured timeout.
func (p *Prober) Probe(ctx context.Context, sourceURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-show_chapters",
		"-of", "json",
		sourceURL,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var ff ffprobeOutput
	if err := json.Unmarshal(output, &ff); err != nil {
		return nil, err
	}

	result := &Result{}

	if dur, err := strconv.ParseFloat(ff.Format.Duration, 64); err == nil {
		result.DurationSeconds = dur
	}
	if size, err := strconv.ParseInt(ff.Format.Size, 10, 64); err == nil {
		result.SizeBytes = size
	}
	// ffprobe reports compound names like "mov,mp4,m4a,3gp"; keep the first.
	if ff.Format.FormatName != "" {
		result.Format = strings.Split(ff.Format.FormatName, ",")[0]
	}

	for _, s := range ff.Streams {
		switch s.CodecType {
		case "video":
			result.VideoStreams++
		case "audio":
			result.AudioStreams++
		case "subtitle":
			result.SubtitleStreams++
		}
	}

	for _, c := range ff.Chapters {
		start, err := strconv.ParseFloat(c.StartTime, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseFloat(c.EndTime, 64)
		if err != nil {
			continue
		}
		result.Chapters = append(result.Chapters, Chapter{
			Start: start,
			End:   end,
			Title: c.Tags["title"],
		})
	}

	return result, nil
}
