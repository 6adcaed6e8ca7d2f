package carddata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePAN(t *testing.T) {
	for i := 0; i < 50; i++ {
		pan, err := GeneratePAN("411111")
		require.NoError(t, err)
		require.Len(t, pan, PANLength)
		require.True(t, IsDigits(pan))
		require.Equal(t, "411111", pan[:6])
		require.True(t, LuhnValid(pan), "pan %s must pass luhn", pan)
	}
}

func TestGeneratePAN_BadBIN(t *testing.T) {
	for _, bin := range []string{"", "4111", "41111a", "411111111"} {
		_, err := GeneratePAN(bin)
		require.Error(t, err, "bin %q", bin)
	}
}

func TestLuhnValid(t *testing.T) {
	require.True(t, LuhnValid("4111111111111111"))
	require.False(t, LuhnValid("4111111111111112"))
	require.False(t, LuhnValid("41111111111111a1"))
	require.False(t, LuhnValid(""))
	require.True(t, LuhnValid("79927398713"))
	require.False(t, LuhnValid("79927398710"))
}

func TestLuhnCheckDigit(t *testing.T) {
	require.Equal(t, byte('1'), luhnCheckDigit("411111111111111"))
	require.Equal(t, byte('3'), luhnCheckDigit("7992739871"))

	for i := 0; i < 20; i++ {
		body, err := RandomDigits(15)
		require.NoError(t, err)
		require.True(t, LuhnValid(body+string(luhnCheckDigit(body))))
	}
}

func TestIsDigitsOfLen(t *testing.T) {
	require.True(t, IsDigitsOfLen("123", 3))
	require.False(t, IsDigitsOfLen("12", 3))
	require.False(t, IsDigitsOfLen("1234", 3))
	require.False(t, IsDigitsOfLen("12a", 3))
	require.False(t, IsDigitsOfLen("", 0))
	require.False(t, IsDigitsOfLen("١٢٣", 3)) // non-ASCII digits
}

func TestRandomDigits(t *testing.T) {
	s, err := RandomDigits(3)
	require.NoError(t, err)
	require.True(t, IsDigitsOfLen(s, 3))

	s, err = RandomDigits(0)
	require.NoError(t, err)
	require.Empty(t, s)
}

func TestMaskPAN(t *testing.T) {
	require.Equal(t, "411111******1111", MaskPAN("4111111111111111"))
	require.Equal(t, "***", MaskPAN("123"))
	require.Equal(t, "**3456", MaskPAN("123456"))
	require.Equal(t, "", MaskPAN(""))
}

func TestLastN(t *testing.T) {
	require.Equal(t, "1111", LastN("4111111111111111", 4))
	require.Equal(t, "12", LastN("12", 4))
}
