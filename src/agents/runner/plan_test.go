package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlan(t *testing.T) {
	assert.Equal(t, []string{
		"Research and analyze: tides",
		"Gather comprehensive information about: tides",
		"Provide detailed insights and findings about: tides",
		"Summarize key points and recommendations for: tides",
		"Generate final comprehensive report about: tides",
	}, Plan("tides", 10))
	assert.Len(t, Plan("tides", 2), 2)
	assert.Empty(t, Plan("tides", 0))
	assert.Empty(t, Plan("tides", -3))
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                                      "0m 0s",
		999 * time.Millisecond:                 "0m 0s",
		59 * time.Second:                       "0m 59s",
		125 * time.Second:                      "2m 5s",
		61*time.Minute + 1500*time.Millisecond: "61m 1s",
		-time.Second:                           "0m 0s",
	}
	for d, want := range tests {
		assert.Equal(t, want, FormatDuration(d), d.String())
	}
}
