package extractor

import (
	"dashboard-service/internal/core/grid"
	"dashboard-service/internal/core/normalize"
	"dashboard-service/internal/domain"
)

// scanOrder devolve os índices das abas começando pelas preferidas.
func (svc *service) scanOrder(sheets []grid.Sheet) []int {
	order := make([]int, 0, len(sheets))
	taken := make(map[int]bool, len(sheets))
	for _, name := range svc.cfg.PreferredSheets {
		want := normalize.Fold(name)
		for i, sheet := range sheets {
			if !taken[i] && normalize.Fold(sheet.Name) == want {
				order = append(order, i)
				taken[i] = true
			}
		}
	}
	for i := range sheets {
		if !taken[i] {
			order = append(order, i)
		}
	}
	return order
}

// longHeader aplica o predicado do modo long sobre a primeira linha: é
// preciso haver ao menos uma dimensão e uma métrica conhecidas.
func (svc *service) longHeader(g *grid.Grid) bool {
	if g == nil || g.NumRows() == 0 {
		return false
	}
	names := make(map[string]bool)
	for c := 0; c < g.RowLen(0); c++ {
		if s := normalize.Slug(g.Text(0, c)); s != "" {
			names[s] = true
		}
	}
	hasDim := false
	for _, d := range svc.cfg.LongDimensions {
		if names[d] {
			hasDim = true
			break
		}
	}
	if !hasDim {
		return false
	}
	for _, m := range svc.cfg.LongMetrics {
		if names[m] {
			return true
		}
	}
	return false
}

// Classify decide o modo de leitura e a aba alvo. Abas são testadas na
// ordem de preferência e depois na ordem original; sem aba em formato long,
// o resultado é blocks na primeira aba da ordem.
func (svc *service) Classify(sheets []grid.Sheet) (domain.Mode, int) {
	if len(sheets) == 0 {
		return domain.ModeBlocks, -1
	}
	order := svc.scanOrder(sheets)
	for _, idx := range order {
		if svc.longHeader(sheets[idx].Grid) {
			return domain.ModeLong, idx
		}
	}
	return domain.ModeBlocks, order[0]
}

// ExtractLong monta a tabela do modo long: primeira linha como cabeçalho e
// demais linhas não vazias como dados, com o mesmo pós-processamento de
// colunas das seções.
func (svc *service) ExtractLong(g *grid.Grid) domain.ExtractedTable {
	if g == nil || g.NumRows() == 0 {
		return domain.ExtractedTable{}
	}
	var dataRows []int
	for r := 1; r < g.NumRows(); r++ {
		if g.RowIsBlank(r) {
			continue
		}
		dataRows = append(dataRows, r)
	}
	spec := SectionSpec{Key: "data", DateColumns: svc.cfg.LongDateColumns}
	return svc.buildTable(g, spec, 0, dataRows)
}
