package youtube

import (
	"fmt"
	"regexp"

	"clipseek/internal/models"
)

// YouTube video IDs are 11 characters of [A-Za-z0-9_-].
var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the video ID out of any supported YouTube URL form,
// or accepts a bare 11-character ID as-is.
func ExtractVideoID(raw string) (string, error) {
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: not a YouTube URL or video ID: %q", models.ErrInvalidInput, raw)
}

// ValidVideoID reports whether s looks like a YouTube video ID.
func ValidVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}
