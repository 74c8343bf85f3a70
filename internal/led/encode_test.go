package led

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestEncodeByteIsExpectedSymbols = []struct {
	In     byte
	Expect [8]byte
}{
	{0x00, [8]byte{SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero}},
	{0xFF, [8]byte{SymbolOne, SymbolOne, SymbolOne, SymbolOne, SymbolOne, SymbolOne, SymbolOne, SymbolOne}},
	{0b1010_0000, [8]byte{SymbolOne, SymbolZero, SymbolOne, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero}},
	{0x01, [8]byte{SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolOne}},
	{0x81, [8]byte{SymbolOne, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolZero, SymbolOne}},
}

func TestEncodeByte(t *testing.T) {
	for k, v := range TestEncodeByteIsExpectedSymbols {
		t.Run("Given byte "+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, EncodeByte(v.In))
		})
	}
}

func TestNewFrameBufferRejectsEmptyString(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewFrameBuffer(n)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	}
}

func TestEncodeAllOff(t *testing.T) {
	for _, n := range []int{1, 4, 60} {
		f, err := NewFrameBuffer(n)
		require.NoError(t, err)
		buf := f.EncodeColors(make([]Color, n))
		require.Len(t, buf, ResetGapBytes+n*24)
		assert.Equal(t, make([]byte, ResetGapBytes), buf[:ResetGapBytes])
		assert.Equal(t, bytes.Repeat([]byte{SymbolZero}, n*24), buf[ResetGapBytes:])
		assert.Equal(t, buf, f.Blank())
	}
}

func TestEncodeAllOn(t *testing.T) {
	f, err := NewFrameBuffer(5)
	require.NoError(t, err)
	colors := make([]Color, 5)
	for i := range colors {
		colors[i] = Color{G: 255, R: 255, B: 255}
	}
	buf := f.EncodeColors(colors)
	assert.Equal(t, make([]byte, ResetGapBytes), buf[:ResetGapBytes])
	assert.Equal(t, bytes.Repeat([]byte{SymbolOne}, 5*24), buf[ResetGapBytes:])
}

func TestEncodeChannelOrder(t *testing.T) {
	f, err := NewFrameBuffer(1)
	require.NoError(t, err)
	buf := f.EncodeColors([]Color{{G: 0b1010_0000, R: 0xFF, B: 0x01}})
	payload := buf[ResetGapBytes:]

	g := EncodeByte(0b1010_0000)
	r := EncodeByte(0xFF)
	b := EncodeByte(0x01)
	assert.Equal(t, g[:], payload[0:8])
	assert.Equal(t, r[:], payload[8:16])
	assert.Equal(t, b[:], payload[16:24])
}

func TestEncodePadsShortInput(t *testing.T) {
	f, err := NewFrameBuffer(4)
	require.NoError(t, err)
	red := Color{R: 200}
	short := append([]byte(nil), f.EncodeColors([]Color{red})...)
	padded := append([]byte(nil), f.EncodeColors([]Color{red, Off, Off, Off})...)
	assert.Equal(t, padded, short)
}

func TestEncodeTruncatesLongInput(t *testing.T) {
	f, err := NewFrameBuffer(2)
	require.NoError(t, err)
	in := []Color{{G: 1}, {R: 2}, {B: 3}, {G: 4}}
	long := append([]byte(nil), f.EncodeColors(in)...)
	exact := append([]byte(nil), f.EncodeColors(in[:2])...)
	assert.Equal(t, exact, long)
	assert.Len(t, in, 4)
}

func TestEncodeRaw(t *testing.T) {
	f, err := NewFrameBuffer(2)
	require.NoError(t, err)

	_, err = f.EncodeRaw([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidFrameLength)
	_, err = f.EncodeRaw(make([]byte, 7))
	assert.ErrorIs(t, err, ErrInvalidFrameLength)

	raw, err := f.EncodeRaw([]byte{0xFF, 0, 0, 0, 0xFF, 0})
	require.NoError(t, err)
	raw = append([]byte(nil), raw...)
	colors := f.EncodeColors([]Color{{G: 0xFF}, {R: 0xFF}})
	assert.Equal(t, colors, raw)
}

func TestEncodeNeverTouchesResetGap(t *testing.T) {
	f, err := NewFrameBuffer(3)
	require.NoError(t, err)
	_, err = f.EncodeRaw(bytes.Repeat([]byte{0xFF}, 9))
	require.NoError(t, err)
	buf := f.EncodeColors([]Color{{G: 0xAA, R: 0x55, B: 0xFF}})
	assert.Equal(t, make([]byte, ResetGapBytes), buf[:ResetGapBytes])
}
