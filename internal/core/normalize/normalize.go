// Package normalize concentra a normalização de texto PT-BR usada pela
// extração: slugs de cabeçalho, comparação sem acentos e coerção de números
// e datas no formato brasileiro.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9 ]+`)
	whitespaceRegex      = regexp.MustCompile(`\s+`)
)

func stripDiacritics(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, str)
	if err != nil {
		return str
	}
	return result
}

// Fold devolve a forma de comparação de um texto: minúsculas, sem acentos,
// pontuação vira espaço e espaços repetidos são colapsados.
func Fold(str string) string {
	result := strings.ToLower(stripDiacritics(str))
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// Slug converte um rótulo em identificador de coluna: forma Fold com espaços
// trocados por underscore ("Valor-venda" -> "valor_venda").
func Slug(str string) string {
	return strings.ReplaceAll(Fold(str), " ", "_")
}

// DedupeColumns torna nomes de coluna únicos preservando a ordem: a primeira
// ocorrência mantém o nome e as repetições ganham sufixo _2, _3, ...
func DedupeColumns(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		seen[name]++
		candidate := name
		if seen[name] > 1 {
			candidate = name + "_" + strconv.Itoa(seen[name])
		}
		for used[candidate] {
			seen[name]++
			candidate = name + "_" + strconv.Itoa(seen[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

// ParseNumberPTBR interpreta números em notação brasileira ou anglo:
// remove R$, % e espaços, aceita parênteses como sinal negativo e decide o
// separador decimal pela última ocorrência de ponto ou vírgula.
// Vazio, "nan" e texto não numérico retornam ok=false.
func ParseNumberPTBR(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return 0, false
		}
	}

	// tratar sinais/parenteses
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}

	// localizar última ocorrência de . e , para decidir formato
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if lastDot > lastComma {
		if lastComma == -1 && dotGroupedInteger(s) {
			// "1.234" / "1.234.567" sem vírgula: ponto é separador de milhar
			s = strings.ReplaceAll(s, ".", "")
		} else if strings.Count(s, ".") > 1 {
			parts := strings.Split(s, ".")
			decimalPart := parts[len(parts)-1]
			intPart := strings.Join(parts[:len(parts)-1], "")
			s = intPart + "." + decimalPart
		}
	} else {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	// remover quaisquer caracteres que não sejam dígitos ou ponto residual
	filtered := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			filtered = append(filtered, r)
		}
	}
	s = string(filtered)
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// dotGroupedInteger reconhece inteiros agrupados de três em três dígitos.
func dotGroupedInteger(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || parts[0] == "" || len(parts[0]) > 3 {
		return false
	}
	for i, p := range parts {
		if i > 0 && len(p) != 3 {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// ParseMoneyPTBR é a variante monetária: tolera o prefixo de moeda antes de
// delegar para ParseNumberPTBR.
func ParseMoneyPTBR(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "r$")
	return ParseNumberPTBR(s)
}

// ExcelSerialToDate converte um serial de data do Excel (base 1899-12-30).
func ExcelSerialToDate(serial float64) time.Time {
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	frac := serial - float64(int64(serial))
	duration := time.Duration(int64(serial)*24) * time.Hour
	duration += time.Duration(frac * 24 * float64(time.Hour))
	return base.Add(duration)
}

// SerialDate aceita um serial Excel apenas dentro do intervalo plausível
// 35000 (≈1995) a 47000 (≈2028), evitando interpretar quantias como datas.
func SerialDate(serial float64) (time.Time, bool) {
	if serial > 35000 && serial < 47000 {
		return ExcelSerialToDate(serial), true
	}
	return time.Time{}, false
}

// ParseDatePTBR interpreta datas com dia primeiro ("02/01/2006"), prefixo ISO
// ("2006-01-02") ou serial Excel plausível.
func ParseDatePTBR(val string) (time.Time, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02/01/2006", "2/1/2006", "02/01/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return SerialDate(f)
	}
	return time.Time{}, false
}
