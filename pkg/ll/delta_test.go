package ll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeltaTime(t *testing.T) {
	require.Equal(t, Microseconds(1500), Milliseconds(1)+Microseconds(500))
	require.Equal(t, Milliseconds(2000), Seconds(2))
	require.Equal(t, int64(-30), Microseconds(-30).Microseconds())
	require.Equal(t, 625*time.Microsecond, Microseconds(625).Duration())
	require.Equal(t, Microseconds(625), FromDuration(625*time.Microsecond))
	require.Equal(t, "150µs", Microseconds(150).String())
}
