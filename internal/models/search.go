package models

// SearchRequest is the engine-level query: one video, one natural-language
// query, optional result count and score floor.
type SearchRequest struct {
	VideoID    string   `json:"video_id"`
	Query      string   `json:"query"`
	MaxResults int      `json:"max_results,omitempty"`
	MinScore   *float32 `json:"min_score,omitempty"` // nil = configured default
}

// SearchResult is one ranked hit. Ephemeral - constructed per query, never
// persisted.
type SearchResult struct {
	ChunkIndex         int     `json:"chunk_index"`
	TimestampSeconds   float64 `json:"timestamp_seconds"`
	TimestampEnd       float64 `json:"timestamp_end"`
	TimestampFormatted string  `json:"timestamp_formatted"` // "M:SS" or "H:MM:SS"
	Text               string  `json:"text"`                // truncated for display
	Score              float32 `json:"score"`               // cosine similarity
	YouTubeLink        string  `json:"youtube_link"`
}

// VideoMetadata describes the indexed video in a search response.
type VideoMetadata struct {
	VideoID      string  `json:"video_id"`
	Duration     float64 `json:"duration"`
	SegmentCount int     `json:"segment_count"`
	Language     string  `json:"language"`
	IsGenerated  bool    `json:"is_generated"`
}

// SearchResponse is the full answer to a search request. Results keep the
// vector index ordering: descending score, ties broken by lower chunk index.
type SearchResponse struct {
	Success      bool           `json:"success"`
	Query        string         `json:"query"`
	Video        VideoMetadata  `json:"video"`
	Results      []SearchResult `json:"results"`
	SearchTimeMs float64        `json:"search_time_ms"`
	Cached       bool           `json:"cached"`
}
