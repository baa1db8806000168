package utils

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{90 * time.Second, "1 minute ago"},
		{45 * time.Minute, "45 minutes ago"},
		{5 * time.Hour, "5 hours ago"},
		{36 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{10 * 24 * time.Hour, "1 week ago"},
		{29 * 24 * time.Hour, "4 weeks ago"},
		{45 * 24 * time.Hour, "1 month ago"},
		{200 * 24 * time.Hour, "6 months ago"},
		{400 * 24 * time.Hour, "1 year ago"},
		{1000 * 24 * time.Hour, "2 years ago"},
		{-15 * 24 * time.Hour, "in 2 weeks"},
		{-10 * time.Second, "just now"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(now.Add(-tt.ago), now))
		})
	}
}

func TestCustomError(t *testing.T) {
	base := errors.New("relay down")
	err := fmt.Errorf("boost: %w", Wrap(http.StatusBadGateway, "Error", "Failed to boost note. Please try again.", base))

	ce := AsCustomError(err)
	assert.Equal(t, http.StatusBadGateway, ce.Code)
	assert.Equal(t, "Failed to boost note. Please try again.", ce.Message)
	assert.ErrorIs(t, err, base)

	plain := AsCustomError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Code)

	nf := AsCustomError(NotFound("note not found"))
	assert.Equal(t, http.StatusNotFound, nf.Code)
	assert.Equal(t, "Code: 404, Message: note not found", nf.Error())
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revisitor.log")
	logger, err := NewLogger(path, "debug")
	require.NoError(t, err)
	logger.Debug("hello")
	_ = logger.Sync()
	assert.FileExists(t, path)

	_, err = NewLogger("", "loud")
	assert.Error(t, err)
}
