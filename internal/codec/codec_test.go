package codec

import (
	"testing"

	"github.com/ParichayaHQ/status-manager/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNewHasRequestedBits(t *testing.T) {
	bs := New(types.ListSize)
	require.Equal(t, types.ListSize, bs.Length())
}

func TestSetGetRoundTrip(t *testing.T) {
	bs := New(types.ListSize)
	cases := []struct {
		index int
		value bool
	}{
		{0, true},
		{1, false},
		{7, true},
		{8, false},
		{99999, true},
	}
	for _, tc := range cases {
		require.NoError(t, bs.Set(tc.index, tc.value))
		got, err := bs.Get(tc.index)
		require.NoError(t, err)
		require.Equal(t, tc.value, got)
	}
}

func TestSetGetOutOfRange(t *testing.T) {
	bs := New(types.ListSize)
	require.Error(t, bs.Set(-1, true))
	require.Error(t, bs.Set(types.ListSize, true))
	_, err := bs.Get(-1)
	require.Error(t, err)
	_, err = bs.Get(types.ListSize)
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bs := New(types.ListSize)
	require.NoError(t, bs.Set(5, true))
	require.NoError(t, bs.Set(12345, true))

	encoded, err := bs.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := Decode(encoded, types.ListSize)
	require.NoError(t, err)
	require.Equal(t, bs.Length(), decoded.Length())

	v, err := decoded.Get(5)
	require.NoError(t, err)
	require.True(t, v)

	v, err = decoded.Get(12345)
	require.NoError(t, err)
	require.True(t, v)

	v, err = decoded.Get(6)
	require.NoError(t, err)
	require.False(t, v)
}

func TestDecodeEmptyString(t *testing.T) {
	bs, err := Decode("", types.ListSize)
	require.NoError(t, err)
	require.Equal(t, types.ListSize, bs.Length())
}

func TestDecodeInvalidBase64(t *testing.T) {
	_, err := Decode("not-valid-base64!!!", types.ListSize)
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	bs := New(types.ListSize)
	require.NoError(t, bs.Set(3, true))
	clone := bs.Clone()
	require.NoError(t, clone.Set(3, false))

	v, err := bs.Get(3)
	require.NoError(t, err)
	require.True(t, v, "mutating clone must not affect original")
}

func TestSmallListSizeRollsOverAtBoundary(t *testing.T) {
	bs := New(2)
	require.Equal(t, 2, bs.Length())
	require.NoError(t, bs.Set(1, true))
	require.Error(t, bs.Set(2, true))
}
