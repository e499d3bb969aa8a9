package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"pending", Pending, true},
		{"Confirmed", Confirmed, true},
		{"  READY  ", Ready, true},
		{"delivered", Delivered, true},
		{"cancelled", Cancelled, true},
		{"shipped", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if !tt.ok {
				require.ErrorIs(t, err, ErrUnknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, Delivered.Terminal())
	assert.True(t, Cancelled.Terminal())
	for _, s := range []Status{Pending, Confirmed, Preparing, Ready} {
		assert.False(t, s.Terminal(), "%s must not be terminal", s)
	}
}

// forbidden pins down the full transition policy: a delivered order only
// tolerates the no-op self-edge, and a cancelled order may be reopened to
// anything except delivered. Every other pair is legal.
func forbidden(from, to Status) bool {
	if from == Delivered {
		return to != Delivered
	}
	if from == Cancelled {
		return to == Delivered
	}
	return false
}

func TestCanTransitionCoversEveryPair(t *testing.T) {
	for _, from := range All {
		for _, to := range All {
			want := !forbidden(from, to)
			assert.Equal(t, want, CanTransition(from, to),
				"CanTransition(%s, %s)", from, to)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("shipped"), Pending))
	assert.False(t, CanTransition(Pending, Status("shipped")))
}

func TestSelfEdgesAlwaysAllowed(t *testing.T) {
	for _, s := range All {
		assert.True(t, CanTransition(s, s), "self-edge on %s", s)
	}
}
