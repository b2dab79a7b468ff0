// Package youtube fetches time-aligned video transcripts.
//
// Direct caption scraping gets cloud IPs blocked, so the production client
// goes through SerpAPI's youtube_video_transcript engine instead.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipseek/internal/models"
)

// Client fetches transcripts via SerpAPI.
type Client struct {
	APIKey  string
	BaseURL string
	lang    string
	client  *http.Client
}

// NewClient creates a transcript client. lang selects the caption track
// (e.g. "en").
func NewClient(apiKey, lang string) *Client {
	if lang == "" {
		lang = "en"
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://serpapi.com",
		lang:    lang,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// isNotFoundError distinguishes "this video has no transcript" from other
// upstream error strings, which the API reports in the same field.
func isNotFoundError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"no transcript", "not found", "unavailable", "no results", "hasn't returned any results"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

type transcriptResponse struct {
	Error      string `json:"error"`
	Transcript []struct {
		Snippet string  `json:"snippet"`
		StartMs float64 `json:"start_ms"`
		EndMs   float64 `json:"end_ms"`
	} `json:"transcript"`
}

// FetchTranscript returns the ordered transcript segments for a video.
// Fails with ErrNotFound when the video has no captions and
// ErrDependencyUnavailable on transport or upstream errors.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (*models.Transcript, error) {
	params := url.Values{}
	params.Set("api_key", c.APIKey)
	params.Set("engine", "youtube_video_transcript")
	params.Set("v", videoID)
	params.Set("lang", c.lang)
	params.Set("type", "asr")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: transcript request failed: %v", models.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: transcript API returned status %d: %s",
			models.ErrDependencyUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode transcript response: %v", models.ErrDependencyUnavailable, err)
	}

	if data.Error != "" {
		if isNotFoundError(data.Error) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, data.Error)
		}
		return nil, fmt.Errorf("%w: transcript API error: %s", models.ErrDependencyUnavailable, data.Error)
	}

	if len(data.Transcript) == 0 {
		return nil, fmt.Errorf("%w: no transcript available for video %s", models.ErrNotFound, videoID)
	}

	segments := make([]models.TranscriptSegment, 0, len(data.Transcript))
	for _, line := range data.Transcript {
		start := line.StartMs / 1000.0
		end := line.EndMs / 1000.0
		if end < start {
			end = start
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     line.Snippet,
			Start:    start,
			Duration: end - start,
		})
	}

	return &models.Transcript{
		VideoID:     videoID,
		Segments:    segments,
		Language:    c.lang,
		IsGenerated: true, // asr track = machine-generated captions
	}, nil
}
