package escape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMask_FirstAtEveryOffset(t *testing.T) {
	for _, c := range []byte{'"', '\\', 0x00, 0x0a, 0x1f} {
		for offset := 0; offset < WindowSize; offset++ {
			window := []byte(strings.Repeat("a", WindowSize))
			window[offset] = c
			mask := Mask(Load(string(window)))
			require.NotZero(t, mask)
			require.Equal(t, offset, First(mask), "byte %#x at %d", c, offset)
		}
	}
}

func TestMask_FirstOfSeveral(t *testing.T) {
	mask := Mask(Load("ab\x01\"\\\x02cd"))
	require.Equal(t, 2, First(mask))
}

func TestMask_Clean(t *testing.T) {
	for _, s := range []string{"abcdefgh", "zażółć!", " ~}|{`_^", "\x7f\x80\xff\xfe\x20\x21!!"} {
		window := (s + strings.Repeat(" ", WindowSize))[:WindowSize]
		require.Zero(t, Mask(Load(window)), "%q", window)
		require.Equal(t, Load(window), LoadBytes([]byte(window)))
	}
}

func TestTable(t *testing.T) {
	dst := make([]byte, UnicodeLen)
	require.True(t, PutShort(dst, '\n'))
	require.Equal(t, `\n`, string(dst[:2]))
	require.False(t, PutShort(dst, 0x01))
	PutUnicode(dst, 0x1f)
	require.Equal(t, `\u001f`, string(dst))
	require.True(t, Needs("a\"b"))
	require.False(t, Needs("plain"))
	require.False(t, NeedsEscape('a'))
	require.True(t, NeedsEscape(0x00))
}
