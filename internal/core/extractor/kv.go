package extractor

import (
	"go.uber.org/zap"

	"dashboard-service/internal/core/grid"
	"dashboard-service/internal/core/normalize"
	"dashboard-service/internal/domain"
)

// findKVHeader procura a primeira linha que contenha uma coluna de campo e
// uma coluna de valor atual, pelos apelidos configurados.
func (svc *service) findKVHeader(g *grid.Grid) (headerRow, fieldCol, valueCol int, ok bool) {
	for r := 0; r < g.NumRows(); r++ {
		field, value := -1, -1
		for c := 0; c < g.RowLen(r); c++ {
			name := normalize.Slug(g.Text(r, c))
			if name == "" {
				continue
			}
			if field < 0 && containsName(svc.cfg.KV.FieldAliases, name) {
				field = c
				continue
			}
			if value < 0 && containsName(svc.cfg.KV.ValueAliases, name) {
				value = c
			}
		}
		if field >= 0 && value >= 0 {
			return r, field, value, true
		}
	}
	return -1, -1, -1, false
}

// ExtractMetrics lê o bloco campo/valor de KPIs. Sem cabeçalho reconhecível
// o resultado é um mapa vazio; chaves repetidas ficam com a última ocorrência.
func (svc *service) ExtractMetrics(g *grid.Grid) domain.MetricsMap {
	metrics := domain.MetricsMap{}
	headerRow, fieldCol, valueCol, ok := svc.findKVHeader(g)
	if !ok {
		svc.logger.Info("bloco de KPIs não encontrado")
		return metrics
	}

	for r := headerRow + 1; r < g.NumRows(); r++ {
		if g.RowIsBlank(r) {
			break
		}
		label := g.Text(r, fieldCol)
		if label == "" {
			continue
		}
		if svc.matchesAnySection(label) {
			break
		}
		key := normalize.Slug(label)
		if key == "" {
			continue
		}
		if n, ok := g.Number(r, valueCol); ok {
			metrics[key] = domain.NumberValue(n)
			continue
		}
		if raw := g.Text(r, valueCol); raw != "" {
			metrics[key] = domain.TextValue(raw)
			continue
		}
		metrics[key] = domain.EmptyValue()
	}

	svc.logger.Debug("KPIs extraídos", zap.Int("quantidade", len(metrics)))
	return metrics
}
