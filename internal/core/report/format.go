// package report/format.go

package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatIntPTBR formata um número como inteiro com separador de milhar
// brasileiro: 1234567 vira "1.234.567". A parte fracionária é truncada.
// Valores não representáveis viram "-".
func FormatIntPTBR(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	n := int64(v)
	neg := n < 0
	if neg {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}

// FormatMoneyPTBR formata um número como moeda brasileira com duas casas:
// 1234.56 vira "R$ 1.234,56". Valores não representáveis viram "R$ -".
func FormatMoneyPTBR(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "R$ -"
	}

	cents := int64(math.Round(math.Abs(v) * 100))
	out := FormatIntPTBR(float64(cents/100)) + "," + fmt.Sprintf("%02d", cents%100)
	if math.Signbit(v) && cents != 0 {
		out = "-" + out
	}
	return "R$ " + out
}

// FormatNumberPTBR formata um número avulso trocando o ponto decimal por
// vírgula, sem separador de milhar. Usado para razões como o ROAS.
func FormatNumberPTBR(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", ",")
}
