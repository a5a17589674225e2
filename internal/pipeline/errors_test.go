package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cases := map[error]string{
		ErrSchema:          "schema",
		ErrEmptyInput:      "empty_input",
		ErrModelSelection:  "model_selection",
		ErrInvalidHorizon:  "invalid_horizon",
		ErrUndefinedMetric: "undefined_metric",
		errors.New("disk on fire"): "internal",
	}

	for err, want := range cases {
		assert.Equal(t, want, Kind(err))
	}
}

func TestKind_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("row 12: %w", ErrSchema)
	assert.Equal(t, "schema", Kind(wrapped))
}
