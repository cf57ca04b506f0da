package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{in: "12.50", cents: 1250, ok: true},
		{in: "12,50", cents: 1250, ok: true},
		{in: "12.505", cents: 1251, ok: true},
		{in: "12.504", cents: 1250, ok: true},
		{in: "0.995", cents: 100, ok: true},
		{in: "7", cents: 700, ok: true},
		{in: "7.5", cents: 750, ok: true},
		{in: "€3,20", cents: 320, ok: true},
		{in: "3,20€", cents: 320, ok: true},
		{in: "0.004", ok: false},
		{in: "0", ok: false},
		{in: "-3", ok: false},
		{in: "abc", ok: false},
		{in: "1.2.3", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cents, ok := Amount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cents, cents)
		})
	}
}
