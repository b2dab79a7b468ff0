package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
)

const testVideoID = "dQw4w9WgXcQ"

func seg(text string, start, duration float64) models.TranscriptSegment {
	return models.TranscriptSegment{Text: text, Start: start, Duration: duration}
}

func TestChunkWindowBoundaries(t *testing.T) {
	segments := []models.TranscriptSegment{
		seg("hello world", 0.0, 2.0),
		seg("stay hungry", 2.0, 2.0),
		seg("stay foolish", 4.0, 2.0),
	}
	cfg := Config{WindowSeconds: 4, OverlapSeconds: 0, MaxChars: 1000}

	chunks, err := Chunk(testVideoID, segments, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "hello world stay hungry", chunks[0].Text)
	assert.Equal(t, 0.0, chunks[0].StartTime)
	assert.Equal(t, 4.0, chunks[0].EndTime)

	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, "stay foolish", chunks[1].Text)
	assert.Equal(t, 4.0, chunks[1].StartTime)
	assert.Equal(t, 6.0, chunks[1].EndTime)

	for _, c := range chunks {
		assert.Equal(t, testVideoID, c.VideoID)
		assert.Nil(t, c.Embedding, "chunker leaves embeddings unset")
	}
}

func TestChunkDeterminism(t *testing.T) {
	segments := make([]models.TranscriptSegment, 0, 40)
	for i := 0; i < 40; i++ {
		segments = append(segments, seg("segment number text", float64(i)*3, 3))
	}
	cfg := Config{WindowSeconds: 30, OverlapSeconds: 5, MaxChars: 400}

	first, err := Chunk(testVideoID, segments, cfg)
	require.NoError(t, err)
	second, err := Chunk(testVideoID, segments, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunkCoverage(t *testing.T) {
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	segments := make([]models.TranscriptSegment, 0, len(words)*4)
	for i := 0; i < len(words)*4; i++ {
		segments = append(segments, seg(words[i%len(words)]+" take "+words[(i+3)%len(words)], float64(i)*4, 4))
	}
	cfg := Config{WindowSeconds: 20, OverlapSeconds: 6, MaxChars: 1000}

	chunks, err := Chunk(testVideoID, segments, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Every segment's text must land in at least one chunk - overlap may
	// duplicate content but nothing is ever skipped.
	all := make([]string, 0, len(chunks))
	for _, c := range chunks {
		all = append(all, c.Text)
	}
	joined := strings.Join(all, "\n")
	for i, s := range segments {
		assert.Contains(t, joined, s.Text, "segment %d dropped", i)
	}

	// Chunk spans are monotonically non-decreasing.
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartTime, chunks[i-1].StartTime)
		assert.GreaterOrEqual(t, chunks[i].EndTime, chunks[i-1].EndTime)
		assert.Equal(t, i, chunks[i].ChunkIndex)
	}
}

func TestChunkOverlapRepeatsTail(t *testing.T) {
	segments := []models.TranscriptSegment{
		seg("one", 0, 10),
		seg("two", 10, 10),
		seg("three", 20, 10),
		seg("four", 30, 10),
	}
	cfg := Config{WindowSeconds: 30, OverlapSeconds: 10, MaxChars: 1000}

	chunks, err := Chunk(testVideoID, segments, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// "three" closed the first window and falls inside the 10s overlap
	// tail, so it reappears at the start of the second chunk.
	assert.Equal(t, "one two three", chunks[0].Text)
	assert.Equal(t, "three four", chunks[1].Text)
	assert.Equal(t, 20.0, chunks[1].StartTime)
}

func TestChunkCharBudgetClosesEarly(t *testing.T) {
	long := strings.Repeat("w", 120)
	segments := []models.TranscriptSegment{
		seg(long, 0, 2),
		seg(long, 2, 2),
		seg(long, 4, 2),
	}
	// 300s window would normally swallow everything; the char budget splits.
	cfg := Config{WindowSeconds: 300, OverlapSeconds: 0, MaxChars: 200}

	chunks, err := Chunk(testVideoID, segments, cfg)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestChunkEmptyTranscript(t *testing.T) {
	chunks, err := Chunk(testVideoID, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkWhitespaceOnlySegments(t *testing.T) {
	segments := []models.TranscriptSegment{
		seg("   ", 0, 5),
		seg("\n\t", 5, 5),
	}
	chunks, err := Chunk(testVideoID, segments, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, chunks, "no empty chunk is ever produced")
}

func TestChunkRejectsNegativeDuration(t *testing.T) {
	segments := []models.TranscriptSegment{seg("ok", 0, -1)}
	_, err := Chunk(testVideoID, segments, DefaultConfig())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestChunkRejectsOutOfOrderSegments(t *testing.T) {
	segments := []models.TranscriptSegment{
		seg("later", 10, 2),
		seg("earlier", 0, 2),
	}
	_, err := Chunk(testVideoID, segments, DefaultConfig())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{WindowSeconds: 0, OverlapSeconds: 0, MaxChars: 100},
		{WindowSeconds: 10, OverlapSeconds: -1, MaxChars: 100},
		{WindowSeconds: 10, OverlapSeconds: 10, MaxChars: 100},
		{WindowSeconds: 10, OverlapSeconds: 0, MaxChars: 0},
	}
	for i, cfg := range bad {
		err := cfg.Validate()
		assert.True(t, errors.Is(err, models.ErrConfiguration), "config %d should fail", i)
	}
	assert.NoError(t, DefaultConfig().Validate())
}
