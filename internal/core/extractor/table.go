package extractor

import (
	"strings"

	"go.uber.org/zap"

	"dashboard-service/internal/core/grid"
	"dashboard-service/internal/core/normalize"
	"dashboard-service/internal/domain"
)

// ---------------------- localização de cabeçalho ----------------------

func (svc *service) findHeader(g *grid.Grid, spec SectionSpec, anchor int) (int, bool) {
	if spec.Header == HeaderNextRow {
		r := anchor + 1
		if r >= g.NumRows() || g.FilledCells(r) == 0 {
			return -1, false
		}
		return r, true
	}

	lookahead := svc.cfg.HeaderLookahead
	if lookahead <= 0 {
		lookahead = 15
	}
	minHits := spec.MinKeywordHits
	if minHits <= 0 {
		minHits = 1
	}
	minFilled := spec.MinFilledCells
	if minFilled <= 0 {
		minFilled = 1
	}

	// pontua cada linha da janela; empate fica com a linha mais alta
	bestRow, bestScore := -1, 0
	for r := anchor; r < g.NumRows() && r < anchor+lookahead; r++ {
		if g.FilledCells(r) < minFilled {
			continue
		}
		score := headerScore(g, r, spec.HeaderKeywords)
		if score >= minHits && score > bestScore {
			bestRow, bestScore = r, score
		}
	}
	if bestRow < 0 {
		return -1, false
	}
	return bestRow, true
}

func headerScore(g *grid.Grid, r int, keywords []string) int {
	score := 0
	for c := 0; c < g.RowLen(r); c++ {
		cell := normalize.Fold(g.Text(r, c))
		if cell == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(cell, normalize.Fold(kw)) {
				score++
				break
			}
		}
	}
	return score
}

// ---------------------- coleta de linhas de dados ----------------------

func (svc *service) collectRows(g *grid.Grid, spec SectionSpec, headerRow int) []int {
	var rows []int
	blanks := 0
	for r := headerRow + 1; r < g.NumRows(); r++ {
		label := g.Text(r, svc.cfg.LabelColumn)
		if label != "" && svc.matchesOtherSection(label, spec.Key) {
			break
		}

		blank := g.RowIsBlank(r)
		switch spec.Stop {
		case StopTotal:
			if strings.HasPrefix(normalize.Fold(label), "total") {
				return rows
			}
			if label == "" && g.Text(r, svc.cfg.LabelColumn+1) == "" {
				return rows
			}
		case StopDoubleBlank:
			if blank {
				blanks++
				if blanks >= 2 {
					return rows
				}
				continue
			}
			blanks = 0
		case StopSingleBlank:
			if blank {
				return rows
			}
		case StopNextToken:
			if blank {
				continue
			}
		}

		if spec.SkipTotalRows && strings.HasPrefix(normalize.Fold(label), "total") {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// ---------------------- montagem da tabela ----------------------

type colKind uint8

const (
	colText colKind = iota
	colNumber
	colMoney
	colDate
)

type workCol struct {
	name string
	raw  string
	src  []int
	kind colKind
}

// buildTable aplica o pós-processamento de colunas na ordem fixa: preencher
// até a largura do cabeçalho, slug dos nomes, descarte de colunas
// percentuais, soma de colunas duplicadas numéricas, dedupe de nomes,
// renomeio da dimensão, descarte de colunas totalmente vazias e coerção por
// tipo de coluna. O descarte de percentuais precede a soma porque "% X" e
// "X" geram o mesmo slug.
func (svc *service) buildTable(g *grid.Grid, spec SectionSpec, headerRow int, dataRows []int) domain.ExtractedTable {
	width := g.RowLen(headerRow)
	for width > 0 && g.Text(headerRow, width-1) == "" {
		width--
	}
	if width == 0 {
		return domain.ExtractedTable{}
	}

	cols := make([]workCol, 0, width)
	for c := 0; c < width; c++ {
		raw := g.Text(headerRow, c)
		name := normalize.Slug(raw)
		if name == "" {
			name = "coluna"
		}
		cols = append(cols, workCol{name: name, raw: raw, src: []int{c}})
	}

	cols = dropPercentColumns(cols)
	cols = svc.mergeDuplicateNumeric(g, cols, dataRows)

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}
	names = normalize.DedupeColumns(names)
	for i := range cols {
		cols[i].name = names[i]
	}

	if spec.Dimension != "" && len(cols) > 0 {
		cols[0].name = spec.Dimension
	}

	for i := range cols {
		cols[i].kind = svc.columnKind(g, spec, cols[i], dataRows)
	}

	colValues := make([][]domain.Value, len(cols))
	fallbacks := 0
	for i, col := range cols {
		values := make([]domain.Value, len(dataRows))
		for j, r := range dataRows {
			v, fellBack := svc.coerceCell(g, col, r)
			if fellBack {
				fallbacks++
			}
			values[j] = v
		}
		colValues[i] = values
	}
	if fallbacks > 0 {
		svc.logger.Debug("coerção com fallback textual",
			zap.String("secao", spec.Key), zap.Int("ocorrencias", fallbacks))
	}

	// colunas totalmente vazias só são descartadas quando há linhas; uma
	// tabela sem linhas mantém todos os cabeçalhos
	if len(dataRows) > 0 {
		kept := make([]workCol, 0, len(cols))
		keptValues := make([][]domain.Value, 0, len(colValues))
		for i, values := range colValues {
			empty := true
			for _, v := range values {
				if !v.IsEmpty() {
					empty = false
					break
				}
			}
			if empty {
				continue
			}
			kept = append(kept, cols[i])
			keptValues = append(keptValues, values)
		}
		cols, colValues = kept, keptValues
	}

	table := domain.ExtractedTable{Columns: make([]string, len(cols))}
	for i, col := range cols {
		table.Columns[i] = col.name
	}
	table.Rows = make([][]domain.Value, len(dataRows))
	for j := range dataRows {
		row := make([]domain.Value, len(cols))
		for i := range cols {
			row[i] = colValues[i][j]
		}
		table.Rows[j] = row
	}
	return table
}

// mergeDuplicateNumeric soma colunas de mesmo nome quando todas parseiam
// como numéricas (artefato de células mescladas no cabeçalho). Duplicatas
// não numéricas seguem para o dedupe de nomes.
func (svc *service) mergeDuplicateNumeric(g *grid.Grid, cols []workCol, dataRows []int) []workCol {
	merged := make([]workCol, 0, len(cols))
	byName := make(map[string]int, len(cols))
	for _, col := range cols {
		if i, ok := byName[col.name]; ok {
			if svc.numericQualifies(g, dataRows, col.src[0]) && svc.allNumeric(g, dataRows, merged[i].src) {
				merged[i].src = append(merged[i].src, col.src[0])
				continue
			}
		} else {
			byName[col.name] = len(merged)
		}
		merged = append(merged, col)
	}
	return merged
}

func (svc *service) allNumeric(g *grid.Grid, dataRows []int, srcs []int) bool {
	for _, c := range srcs {
		if !svc.numericQualifies(g, dataRows, c) {
			return false
		}
	}
	return true
}

// numericQualifies aplica o limiar: a coluna é numérica quando a fração de
// valores não vazios que parseiam como número atinge NumericThreshold.
func (svc *service) numericQualifies(g *grid.Grid, dataRows []int, col int) bool {
	nonEmpty, hits := 0, 0
	for _, r := range dataRows {
		if g.Text(r, col) == "" {
			continue
		}
		nonEmpty++
		if _, ok := g.Number(r, col); ok {
			hits++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return float64(hits) >= svc.cfg.NumericThreshold*float64(nonEmpty)
}

// dropPercentColumns descarta colunas percentuais quando existe ao menos uma
// coluna de quantidade paralela; a coluna de dimensão nunca é descartada.
func dropPercentColumns(cols []workCol) []workCol {
	hasQty := false
	for i, col := range cols {
		if i == 0 {
			continue
		}
		if !strings.Contains(col.raw, "%") {
			hasQty = true
			break
		}
	}
	if !hasQty {
		return cols
	}
	kept := cols[:0]
	for i, col := range cols {
		if i > 0 && strings.Contains(col.raw, "%") {
			continue
		}
		kept = append(kept, col)
	}
	return kept
}

func (svc *service) columnKind(g *grid.Grid, spec SectionSpec, col workCol, dataRows []int) colKind {
	if containsName(spec.DateColumns, col.name) {
		return colDate
	}
	if containsName(spec.CurrencyColumns, col.name) {
		return colMoney
	}
	if len(col.src) > 1 {
		return colNumber
	}
	if svc.numericQualifies(g, dataRows, col.src[0]) {
		return colNumber
	}
	return colText
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// coerceCell produz o valor tipado de uma célula; o segundo retorno indica
// fallback textual em coluna tipada.
func (svc *service) coerceCell(g *grid.Grid, col workCol, r int) (domain.Value, bool) {
	if len(col.src) > 1 {
		sum := 0.0
		any := false
		for _, c := range col.src {
			if n, ok := g.Number(r, c); ok {
				sum += n
				any = true
			}
		}
		if !any {
			return domain.EmptyValue(), false
		}
		return domain.NumberValue(sum), false
	}

	c := col.src[0]
	txt := g.Text(r, c)
	switch col.kind {
	case colDate:
		if d, ok := g.Date(r, c); ok {
			return domain.DateValue(d), false
		}
	case colMoney:
		if n, ok := g.Money(r, c); ok {
			return domain.NumberValue(n), false
		}
	case colNumber:
		if n, ok := g.Number(r, c); ok {
			return domain.NumberValue(n), false
		}
	default:
		if txt == "" {
			return domain.EmptyValue(), false
		}
		return domain.TextValue(txt), false
	}

	// coluna tipada com célula fora do padrão: vira texto cru, nunca erro
	if txt == "" {
		return domain.EmptyValue(), false
	}
	return domain.TextValue(txt), true
}
