package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
)

func newTestEngine(source *fakeSource, embedder *stubEmbedder, cfg QueryConfig) *QueryEngine {
	return NewQueryEngine(newTestBuilder(source, embedder), embedder, cfg)
}

func TestSearchFindsPhraseAtTimestamp(t *testing.T) {
	source := &fakeSource{transcript: testTranscript()}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{MinScore: 0.1})

	resp, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "stay foolish",
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Results)

	// "stay foolish" is the exact text of the second chunk.
	top := resp.Results[0]
	assert.Equal(t, 1, top.ChunkIndex)
	assert.InDelta(t, 1.0, float64(top.Score), 1e-5)
	assert.Equal(t, 4.0, top.TimestampSeconds)
	assert.Equal(t, "0:04", top.TimestampFormatted)
	assert.Equal(t, "stay foolish", top.Text)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=4s", top.YouTubeLink)

	assert.Equal(t, testVideoID, resp.Video.VideoID)
	assert.Equal(t, 6.0, resp.Video.Duration)
	assert.Equal(t, 3, resp.Video.SegmentCount)
	assert.Equal(t, "en", resp.Video.Language)
	assert.True(t, resp.Video.IsGenerated)
	assert.False(t, resp.Cached)
	assert.GreaterOrEqual(t, resp.SearchTimeMs, 0.0)
}

func TestSearchSecondCallIsCached(t *testing.T) {
	source := &fakeSource{transcript: testTranscript()}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{})

	req := models.SearchRequest{VideoID: testVideoID, Query: "hello world"}
	first, err := engine.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := engine.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestSearchMinScoreOverride(t *testing.T) {
	source := &fakeSource{transcript: testTranscript()}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{MinScore: 0.0})

	// "stay" appears in both chunks, so both score above zero.
	resp, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "stay foolish",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	// A strict per-request floor keeps only the exact match.
	floor := float32(0.99)
	resp, err = engine.Search(context.Background(), models.SearchRequest{
		VideoID:  testVideoID,
		Query:    "stay foolish",
		MinScore: &floor,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Results[0].ChunkIndex)
}

func TestSearchUnrelatedQueryReturnsNothing(t *testing.T) {
	source := &fakeSource{transcript: testTranscript()}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{MinScore: 0.1})

	resp, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "quantum chromodynamics",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success, "zero matches is not an error")
	assert.Empty(t, resp.Results)
}

func TestSearchClampsResultCount(t *testing.T) {
	source := &fakeSource{transcript: testTranscript()}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{DefaultK: 5, MaxK: 1})

	resp, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID:    testVideoID,
		Query:      "stay",
		MaxResults: 50,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1, "max_results is clamped to the ceiling")
}

func TestSearchRejectsBadInput(t *testing.T) {
	source := &fakeSource{transcript: testTranscript()}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{})

	_, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: "not-an-id",
		Query:   "hello",
	})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "   ",
	})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	assert.Equal(t, int32(0), source.calls.Load(), "invalid requests never reach the source")
}

func TestSearchEmptyIndexVideo(t *testing.T) {
	source := &fakeSource{transcript: &models.Transcript{VideoID: testVideoID, Language: "en"}}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{})

	resp, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "anything",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
}

func TestSearchPropagatesBuildFailure(t *testing.T) {
	source := &fakeSource{errs: []error{fmt.Errorf("%w: no captions", models.ErrNotFound)}}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{})

	_, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "hello",
	})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestSearchTruncatesLongChunkText(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "verylongword "
	}
	source := &fakeSource{transcript: &models.Transcript{
		VideoID: testVideoID,
		Segments: []models.TranscriptSegment{
			{Text: long, Start: 0, Duration: 10},
		},
		Language: "en",
	}}
	engine := newTestEngine(source, &stubEmbedder{}, QueryConfig{TruncateChars: 50})

	resp, err := engine.Search(context.Background(), models.SearchRequest{
		VideoID: testVideoID,
		Query:   "verylongword",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Len(t, []rune(resp.Results[0].Text), 53, "50 runes plus ellipsis")
}
