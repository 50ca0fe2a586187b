package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeedback(t *testing.T) {
	t.Parallel()

	t.Run("valid feedback", func(t *testing.T) {
		t.Parallel()

		fb, err := NewFeedback("The delivery was three days late.", FeedbackSourceManual)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, fb.ID)
		assert.Equal(t, LanguageAuto, fb.Language)
		assert.Equal(t, FeedbackSourceManual, fb.Source)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()

		_, err := NewFeedback("", FeedbackSourceAPI)
		assert.ErrorIs(t, err, ErrEmptyFeedbackContent)
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()

		_, err := NewFeedback(strings.Repeat("a", MaxFeedbackContentLength+1), FeedbackSourceAPI)
		assert.ErrorIs(t, err, ErrFeedbackContentTooLong)
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Parallel()

		_, err := NewFeedback("fine", FeedbackSource("carrier_pigeon"))
		assert.ErrorIs(t, err, ErrInvalidFeedbackSource)
	})
}

func TestNormalizeUrgency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want UrgencyLevel
	}{
		{"high", UrgencyHigh},
		{"medium", UrgencyMedium},
		{"low", UrgencyLow},
		{"", UrgencyLow},
		{"critical", UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeUrgency(tt.in))
		})
	}
}
