package youtube

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with extra params", "https://www.youtube.com/watch?list=PL1&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url with timestamp", "https://youtu.be/dQw4w9WgXcQ?t=30", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy v url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractVideoID(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractVideoIDRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"not a url",
		"https://vimeo.com/12345",
		"https://www.youtube.com/watch?v=tooshort",
		"dQw4w9WgXc",               // 10 chars
		"dQw4w9WgXcQQ",             // 12 chars
		"https://youtube.com/feed", // no id at all
	}
	for _, in := range bad {
		_, err := ExtractVideoID(in)
		assert.True(t, errors.Is(err, models.ErrInvalidInput), "input %q", in)
	}
}

func TestValidVideoID(t *testing.T) {
	assert.True(t, ValidVideoID("dQw4w9WgXcQ"))
	assert.True(t, ValidVideoID("_-_-_-_-_-_"))
	assert.False(t, ValidVideoID(""))
	assert.False(t, ValidVideoID("dQw4w9WgXc"))
	assert.False(t, ValidVideoID("has space!!"))
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{4, "0:04"},
		{65, "1:05"},
		{59.9, "0:59"},
		{600, "10:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{7325, "2:02:05"},
		{-3, "0:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatTimestamp(tc.seconds), "seconds %v", tc.seconds)
	}
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=4s",
		WatchURL("dQw4w9WgXcQ", 4.7))
	assert.Equal(t,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=0s",
		WatchURL("dQw4w9WgXcQ", 0))
}
