package logging

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "status code", err: fmt.Errorf("status 429"), want: true},
		{name: "provider code", err: errors.New(`{"code":"rate_limit_exceeded"}`), want: true},
		{name: "phrase", err: errors.New("Rate limit reached for model"), want: true},
		{name: "other", err: errors.New("status 500"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	logger := New("runner")
	assert.Same(t, logger, OrDiscard(logger))
	assert.Equal(t, "[runner] ", logger.Prefix())
}
