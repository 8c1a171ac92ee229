package entities

// Chapter is one chapter mark carried by the source container.
type Chapter struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// VideoMetadata describes the source object. Estimated distinguishes probe
// data from a file-size heuristic; an estimated record may be replaced by a
// measured one, never the other way around.
type VideoMetadata struct {
	DurationSeconds float64   `json:"duration_seconds"`
	Format          string    `json:"format"`
	SizeBytes       int64     `json:"size_bytes"`
	VideoStreams    int       `json:"video_streams"`
	AudioStreams    int       `json:"audio_streams"`
	SubtitleStreams int       `json:"subtitle_streams"`
	Chapters        []Chapter `json:"chapters,omitempty"`
	Estimated       bool      `json:"estimated"`
}
