package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIntPTBR(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234567, "1.234.567"},
		{1000, "1.000"},
		{999, "999"},
		{0, "0"},
		{-45000, "-45.000"},
		{12.9, "12"},
		{math.NaN(), "-"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatIntPTBR(tc.in))
	}
}

func TestFormatMoneyPTBR(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234.56, "R$ 1.234,56"},
		{1234567.891, "R$ 1.234.567,89"},
		{0, "R$ 0,00"},
		{12.5, "R$ 12,50"},
		{-1000, "R$ -1.000,00"},
		{math.NaN(), "R$ -"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMoneyPTBR(tc.in))
	}
}

func TestFormatNumberPTBR(t *testing.T) {
	assert.Equal(t, "3,8", FormatNumberPTBR(3.8))
	assert.Equal(t, "12", FormatNumberPTBR(12))
	assert.Equal(t, "-", FormatNumberPTBR(math.Inf(1)))
}
