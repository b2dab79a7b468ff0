package youtube

import "fmt"

// FormatTimestamp renders seconds as "M:SS", or "H:MM:SS" once the video is
// an hour or longer.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// WatchURL returns a deep link that starts playback at the given offset.
func WatchURL(videoID string, seconds float64) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, int(seconds))
}
