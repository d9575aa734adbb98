package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffFor(t *testing.T) {
	tests := []struct {
		name    string
		class   FailureClass
		attempt int
		want    time.Duration
	}{
		{"overloaded first attempt", FailureOverloaded, 1, 20 * time.Second},
		{"overloaded second attempt", FailureOverloaded, 2, 40 * time.Second},
		{"overloaded third attempt", FailureOverloaded, 3, 60 * time.Second},
		{"overloaded capped", FailureOverloaded, 5, 60 * time.Second},
		{"timeout first attempt", FailureTimeout, 1, 15 * time.Second},
		{"timeout second attempt", FailureTimeout, 2, 30 * time.Second},
		{"timeout capped", FailureTimeout, 3, 40 * time.Second},
		{"rate limited is fixed", FailureRateLimited, 1, 30 * time.Second},
		{"rate limited stays fixed", FailureRateLimited, 4, 30 * time.Second},
		{"other is fixed", FailureOther, 1, 10 * time.Second},
		{"other stays fixed", FailureOther, 4, 10 * time.Second},
		{"attempt floor", FailureOverloaded, 0, 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffFor(tt.class, tt.attempt))
		})
	}
}
