package utils

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "GirlPower Wrestling", NormalizeName("  GirlPower \t  Wrestling \n"))
	require.Equal(t, "", NormalizeName("   "))
	// decomposed e + combining acute becomes a single code point
	require.Equal(t, "Caf\u00e9", NormalizeName("Cafe\u0301"))
}

func TestNormalizeCode(t *testing.T) {
	require.Equal(t, "ABC234", NormalizeCode("  abc234 "))
	require.Equal(t, "", NormalizeCode(" \t"))
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("a", 500)
	require.Len(t, TruncateRunes(long, 240), 240)
	require.Equal(t, "short", TruncateRunes("short", 240))
	require.Equal(t, "", TruncateRunes("abc", 0))

	multi := strings.Repeat("é", 300)
	cut := TruncateRunes(multi, 240)
	require.Equal(t, 240, utf8.RuneCountInString(cut))
	require.True(t, utf8.ValidString(cut))
}

func TestParseDateKey(t *testing.T) {
	_, err := ParseDateKey("2026-02-28")
	require.NoError(t, err)

	for _, bad := range []string{"", "2026-2-28", "2026-02-30", "28/02/2026", "2026-02-28T00:00:00Z"} {
		_, err := ParseDateKey(bad)
		require.ErrorIs(t, err, ErrInvalidDateKey, bad)
	}
}

func TestLocalDateKey(t *testing.T) {
	now := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)

	key, err := LocalDateKey(now, "")
	require.NoError(t, err)
	require.Equal(t, "2026-03-15", key)

	key, err = LocalDateKey(now, "America/Los_Angeles")
	require.NoError(t, err)
	require.Equal(t, "2026-03-14", key)

	_, err = LocalDateKey(now, "Mars/Olympus")
	require.ErrorIs(t, err, ErrInvalidTimezone)
}
