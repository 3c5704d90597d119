package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("socket closed")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "invalid input", err: InvalidInput("empty"), want: KindInvalidInput},
		{name: "upstream wrapped", err: UpstreamUnavailable("llm down", base), want: KindUpstreamUnavailable},
		{name: "delivery overrun", err: DeliveryOverrun("slow consumer"), want: KindDeliveryOverrun},
		{name: "nested in fmt wrap", err: fmt.Errorf("outer: %w", CacheDegraded("redis", base)), want: KindCacheDegraded},
		{name: "plain error", err: base, want: ""},
		{name: "nil", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("root cause")
	err := UpstreamUnavailable("search failed", base)

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "UPSTREAM_UNAVAILABLE")
	assert.Contains(t, err.Error(), "root cause")
}
