package models

// TranscriptSegment is a single caption line as delivered by the transcript
// source: raw text plus its position on the video timeline.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // seconds from video start
	Duration float64 `json:"duration"` // seconds, non-negative
}

// End returns the segment's end time in seconds.
func (s TranscriptSegment) End() float64 {
	return s.Start + s.Duration
}

// Transcript is the full time-aligned transcript for one video.
type Transcript struct {
	VideoID     string              `json:"video_id"`
	Segments    []TranscriptSegment `json:"segments"`
	Language    string              `json:"language"`
	IsGenerated bool                `json:"is_generated"` // machine-generated captions
}

// Duration returns the end time of the last segment, or 0 for an empty
// transcript.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End()
}
