package ll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateStaticRandomAddress(t *testing.T) {
	addr := GenerateStaticRandomAddress(0x1234abcd)
	require.True(t, addr.IsStaticRandom())
	// same seed, same address across restarts
	require.Equal(t, addr, GenerateStaticRandomAddress(0x1234abcd))
	require.NotEqual(t, addr, GenerateStaticRandomAddress(0x1234abce))
}

func TestAddressString(t *testing.T) {
	addr := Address{0x01, 0x02, 0x03, 0x04, 0x05, 0xc6}
	require.Equal(t, "c6:05:04:03:02:01", addr.String())
}

func TestBufferViews(t *testing.T) {
	require.True(t, WriteBuffer(nil).Empty())
	require.False(t, WriteBuffer([]byte{1}).Empty())
	require.Equal(t, 1, WriteBuffer([]byte{1}).Len())
	require.True(t, ReadBuffer(nil).Empty())
	require.Equal(t, 2, ReadBuffer(make([]byte, 2)).Cap())
}
