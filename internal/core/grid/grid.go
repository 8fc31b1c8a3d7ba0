// Package grid modela a planilha bruta como uma matriz retangular de células
// não tipadas, com acessores que concentram a coerção PT-BR de números e
// datas. O grid é somente leitura após a construção.
package grid

import (
	"math"
	"strconv"
	"strings"
	"time"

	"dashboard-service/internal/core/normalize"
	"dashboard-service/internal/domain"
)

// Sheet é uma aba nomeada da fonte.
type Sheet struct {
	Name string
	Grid *Grid
}

// Grid é a matriz de células de uma aba. Linhas curtas são tratadas como
// completadas com células vazias; acessos fora dos limites devolvem a célula
// vazia.
type Grid struct {
	rows [][]domain.Value
	cols int
}

// New monta um grid a partir das linhas já tipadas.
func New(rows [][]domain.Value) *Grid {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return &Grid{rows: rows, cols: cols}
}

// FromStrings monta um grid a partir de linhas de texto cru: célula vazia
// vira vazio, número em notação canônica vira número e o resto permanece
// texto (a coerção PT-BR acontece nos acessores).
func FromStrings(rows [][]string) *Grid {
	typed := make([][]domain.Value, len(rows))
	for i, row := range rows {
		cells := make([]domain.Value, len(row))
		for j, raw := range row {
			cells[j] = sniffCell(raw)
		}
		typed[i] = cells
	}
	return New(typed)
}

func sniffCell(raw string) domain.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.EmptyValue()
	}
	if !strings.ContainsAny(s, "xX") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return domain.NumberValue(f)
		}
	}
	return domain.TextValue(raw)
}

// NumRows devolve a quantidade de linhas.
func (g *Grid) NumRows() int {
	return len(g.rows)
}

// NumCols devolve a largura do grid (linha mais larga).
func (g *Grid) NumCols() int {
	return g.cols
}

// Cell devolve a célula na posição dada, ou a célula vazia fora dos limites.
func (g *Grid) Cell(r, c int) domain.Value {
	if r < 0 || r >= len(g.rows) {
		return domain.EmptyValue()
	}
	row := g.rows[r]
	if c < 0 || c >= len(row) {
		return domain.EmptyValue()
	}
	return row[c]
}

// Text devolve a célula como texto aparado.
func (g *Grid) Text(r, c int) string {
	v := g.Cell(r, c)
	if v.Kind == domain.KindText {
		return strings.TrimSpace(v.Text)
	}
	return v.String()
}

// Number devolve a célula como número: células numéricas passam direto e
// texto é coagido por ParseNumberPTBR.
func (g *Grid) Number(r, c int) (float64, bool) {
	v := g.Cell(r, c)
	switch v.Kind {
	case domain.KindNumber:
		return v.Number, true
	case domain.KindText:
		return normalize.ParseNumberPTBR(v.Text)
	default:
		return 0, false
	}
}

// Money é a variante monetária de Number.
func (g *Grid) Money(r, c int) (float64, bool) {
	v := g.Cell(r, c)
	switch v.Kind {
	case domain.KindNumber:
		return v.Number, true
	case domain.KindText:
		return normalize.ParseMoneyPTBR(v.Text)
	default:
		return 0, false
	}
}

// Date devolve a célula como data: texto é coagido com dia primeiro e
// números são aceitos apenas como serial Excel plausível.
func (g *Grid) Date(r, c int) (time.Time, bool) {
	v := g.Cell(r, c)
	switch v.Kind {
	case domain.KindDate:
		return v.Date, true
	case domain.KindText:
		return normalize.ParseDatePTBR(v.Text)
	case domain.KindNumber:
		return normalize.SerialDate(v.Number)
	default:
		return time.Time{}, false
	}
}

// RowLen devolve o comprimento bruto da linha, antes de qualquer
// preenchimento até a largura do grid.
func (g *Grid) RowLen(r int) int {
	if r < 0 || r >= len(g.rows) {
		return 0
	}
	return len(g.rows[r])
}

// RowIsBlank indica se todas as células da linha são vazias após aparar.
func (g *Grid) RowIsBlank(r int) bool {
	if r < 0 || r >= len(g.rows) {
		return true
	}
	for c := range g.rows[r] {
		if g.Text(r, c) != "" {
			return false
		}
	}
	return true
}

// FilledCells conta as células não vazias da linha.
func (g *Grid) FilledCells(r int) int {
	if r < 0 || r >= len(g.rows) {
		return 0
	}
	n := 0
	for c := range g.rows[r] {
		if g.Text(r, c) != "" {
			n++
		}
	}
	return n
}
