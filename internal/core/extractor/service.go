package extractor

import (
	"go.uber.org/zap"

	"dashboard-service/internal/core/grid"
	"dashboard-service/internal/domain"
)

// Service define o contrato do motor de extração. A extração é heurística e
// nunca devolve erro: seções ausentes ou malformadas viram resultados vazios.
type Service interface {
	// BuildBlob classifica as abas e produz o blob completo de uma leitura.
	BuildBlob(sheets []grid.Sheet) domain.DataBlob
	// Classify decide entre os modos long e blocks e a aba alvo.
	Classify(sheets []grid.Sheet) (domain.Mode, int)
	// ExtractLong lê uma aba tidy com cabeçalho na primeira linha.
	ExtractLong(g *grid.Grid) domain.ExtractedTable
	// ExtractBlocks extrai todas as seções configuradas e o bloco de KPIs.
	ExtractBlocks(g *grid.Grid) (map[string]domain.ExtractedTable, domain.MetricsMap)
	// ExtractSection extrai uma única seção do template.
	ExtractSection(g *grid.Grid, spec SectionSpec) domain.ExtractedTable
	// ExtractMetrics lê o bloco campo/valor de KPIs.
	ExtractMetrics(g *grid.Grid) domain.MetricsMap
}

type service struct {
	cfg    Config
	logger *zap.Logger
}

// NewService cria o serviço de extração; logger nulo vira zap.NewNop().
func NewService(cfg Config, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{cfg: cfg, logger: logger}
}

func (svc *service) BuildBlob(sheets []grid.Sheet) domain.DataBlob {
	mode, idx := svc.Classify(sheets)
	if idx < 0 {
		svc.logger.Info("nenhuma aba disponível; blob vazio em modo blocks")
		return domain.DataBlob{
			Mode:    domain.ModeBlocks,
			Tables:  map[string]domain.ExtractedTable{},
			Metrics: domain.MetricsMap{},
		}
	}

	g := sheets[idx].Grid
	svc.logger.Info("blob em montagem",
		zap.String("modo", string(mode)), zap.String("aba", sheets[idx].Name))

	if mode == domain.ModeLong {
		table := svc.ExtractLong(g)
		return domain.DataBlob{Mode: domain.ModeLong, Long: &table}
	}

	tables, metrics := svc.ExtractBlocks(g)
	return domain.DataBlob{Mode: domain.ModeBlocks, Tables: tables, Metrics: metrics}
}

func (svc *service) ExtractBlocks(g *grid.Grid) (map[string]domain.ExtractedTable, domain.MetricsMap) {
	tables := make(map[string]domain.ExtractedTable, len(svc.cfg.Sections))
	for _, spec := range svc.cfg.Sections {
		tables[spec.Key] = svc.ExtractSection(g, spec)
	}
	return tables, svc.ExtractMetrics(g)
}

func (svc *service) ExtractSection(g *grid.Grid, spec SectionSpec) domain.ExtractedTable {
	anchor, ok := svc.findAnchor(g, spec)
	if !ok {
		fields := []zap.Field{zap.String("secao", spec.Key)}
		if len(spec.Tokens) > 0 {
			if hint := svc.nearestLabel(g, spec.Tokens[0]); hint != "" {
				fields = append(fields, zap.String("rotulo_mais_proximo", hint))
			}
		}
		svc.logger.Info("seção não encontrada", fields...)
		return domain.ExtractedTable{}
	}

	headerRow, ok := svc.findHeader(g, spec, anchor)
	if !ok {
		svc.logger.Info("cabeçalho indeterminado",
			zap.String("secao", spec.Key), zap.Int("ancora", anchor))
		return domain.ExtractedTable{}
	}

	rows := svc.collectRows(g, spec, headerRow)
	table := svc.buildTable(g, spec, headerRow, rows)
	svc.logger.Debug("seção extraída",
		zap.String("secao", spec.Key),
		zap.Int("linhas", len(table.Rows)),
		zap.Int("colunas", len(table.Columns)))
	return table
}
