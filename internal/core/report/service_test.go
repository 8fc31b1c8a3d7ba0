package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-service/internal/domain"
)

func longBlob() domain.DataBlob {
	table := &domain.ExtractedTable{
		Columns: []string{"estado", "canal", "profissao", "leads", "vendas", "valor"},
		Rows: [][]domain.Value{
			{domain.TextValue("SP"), domain.TextValue("facebook"), domain.TextValue("dentista"), domain.NumberValue(100), domain.NumberValue(10), domain.NumberValue(5000)},
			{domain.TextValue("RJ"), domain.TextValue("instagram"), domain.TextValue("medico"), domain.NumberValue(80), domain.NumberValue(8), domain.NumberValue(4000)},
			{domain.TextValue("SP"), domain.TextValue("facebook"), domain.TextValue("medico"), domain.NumberValue(50), domain.NumberValue(5), domain.NumberValue(2500)},
		},
	}
	return domain.DataBlob{Mode: domain.ModeLong, Long: table}
}

func blocksBlob() domain.DataBlob {
	vendas := domain.ExtractedTable{
		Columns: []string{"data", "produto", "valor_venda", "valor_liquido"},
		Rows: [][]domain.Value{
			{domain.DateValue(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)), domain.TextValue("Curso A"), domain.NumberValue(2500), domain.NumberValue(2200)},
			{domain.DateValue(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)), domain.TextValue("Curso B"), domain.NumberValue(1500), domain.NumberValue(1300)},
		},
	}
	estado := domain.ExtractedTable{
		Columns: []string{"estado", "dentista", "medico"},
		Rows: [][]domain.Value{
			{domain.TextValue("SP"), domain.NumberValue(10), domain.NumberValue(4)},
			{domain.TextValue("MG"), domain.NumberValue(2), domain.NumberValue(3)},
		},
	}
	regiao := domain.ExtractedTable{
		Columns: []string{"regiao", "dentista", "medico"},
		Rows: [][]domain.Value{
			{domain.TextValue("Sudeste"), domain.NumberValue(12), domain.NumberValue(7)},
		},
	}
	canais := domain.ExtractedTable{
		Columns: []string{"profissao", "facebook", "instagram"},
		Rows: [][]domain.Value{
			{domain.TextValue("Dentista"), domain.NumberValue(30), domain.NumberValue(20)},
			{domain.TextValue("Médico"), domain.NumberValue(10), domain.NumberValue(25)},
		},
	}
	return domain.DataBlob{
		Mode: domain.ModeBlocks,
		Tables: map[string]domain.ExtractedTable{
			"vendas_realizadas":   vendas,
			"estado_x_profissao":  estado,
			"regiao_x_profissao":  regiao,
			"profissoes_x_canais": canais,
		},
		Metrics: domain.MetricsMap{
			"total_leads":        domain.NumberValue(3450),
			"cpl_medio":          domain.NumberValue(12.5),
			"investimento_total": domain.NumberValue(43125),
			"roas_geral":         domain.NumberValue(3.8),
		},
	}
}

func cardValue(t *testing.T, cards []Card, key string) string {
	t.Helper()
	for _, c := range cards {
		if c.Key == key {
			return c.Value
		}
	}
	t.Fatalf("card %q não encontrado", key)
	return ""
}

func TestResumoBlocks(t *testing.T) {
	svc := NewService(nil)
	payload := svc.Resumo(blocksBlob())

	assert.Equal(t, domain.ModeBlocks, payload.Mode)
	assert.Equal(t, "3.450", cardValue(t, payload.Cards, "total_leads"))
	assert.Equal(t, "R$ 12,50", cardValue(t, payload.Cards, "cpl_medio"))
	assert.Equal(t, "R$ 43.125,00", cardValue(t, payload.Cards, "investimento_total"))
	assert.Equal(t, "3,8", cardValue(t, payload.Cards, "roas_geral"))
}

func TestResumoBlocksMetricsMissing(t *testing.T) {
	svc := NewService(nil)
	blob := domain.DataBlob{Mode: domain.ModeBlocks, Metrics: domain.MetricsMap{}}

	payload := svc.Resumo(blob)
	require.Len(t, payload.Cards, 4)
	for _, c := range payload.Cards {
		assert.Equal(t, "-", c.Value)
	}
}

func TestResumoBlocksTextMetric(t *testing.T) {
	svc := NewService(nil)
	blob := domain.DataBlob{
		Mode:    domain.ModeBlocks,
		Metrics: domain.MetricsMap{"roas_geral": domain.TextValue("3,8x")},
	}

	payload := svc.Resumo(blob)
	assert.Equal(t, "3,8x", cardValue(t, payload.Cards, "roas_geral"))
}

func TestResumoLong(t *testing.T) {
	svc := NewService(nil)
	payload := svc.Resumo(longBlob())

	assert.Equal(t, domain.ModeLong, payload.Mode)
	assert.Equal(t, "230", cardValue(t, payload.Cards, "total_leads"))
	assert.Equal(t, "23", cardValue(t, payload.Cards, "total_vendas"))
	assert.Equal(t, "R$ 11.500,00", cardValue(t, payload.Cards, "faturamento"))
}

func TestVisaoGeralListsSections(t *testing.T) {
	svc := NewService(nil)
	payload := svc.VisaoGeral(blocksBlob())

	require.Len(t, payload.Sections, 4)
	keys := make([]string, len(payload.Sections))
	for i, s := range payload.Sections {
		keys[i] = s.Key
	}
	assert.Equal(t, []string{"estado_x_profissao", "profissoes_x_canais", "regiao_x_profissao", "vendas_realizadas"}, keys)
	assert.Equal(t, "3.450", cardValue(t, payload.Cards, "total_leads"))
}

func TestOrigemConversaoBlocks(t *testing.T) {
	svc := NewService(nil)
	payload := svc.OrigemConversao(blocksBlob())

	require.Len(t, payload.Canais, 2)
	assert.Equal(t, "instagram", payload.Canais[0].Dimension)
	assert.Equal(t, 45.0, payload.Canais[0].Total)
	assert.Equal(t, "45", payload.Canais[0].Display)
	assert.Equal(t, "facebook", payload.Canais[1].Dimension)
	assert.Equal(t, 40.0, payload.Canais[1].Total)
}

func TestOrigemConversaoLong(t *testing.T) {
	svc := NewService(nil)
	payload := svc.OrigemConversao(longBlob())

	require.Len(t, payload.Canais, 2)
	assert.Equal(t, "facebook", payload.Canais[0].Dimension)
	assert.Equal(t, 7500.0, payload.Canais[0].Total)
	assert.Equal(t, "R$ 7.500,00", payload.Canais[0].Display)
	assert.Equal(t, "instagram", payload.Canais[1].Dimension)
	assert.Equal(t, 4000.0, payload.Canais[1].Total)
}

func TestProfissaoPorCanalBlocks(t *testing.T) {
	svc := NewService(nil)
	payload := svc.ProfissaoPorCanal(blocksBlob())

	assert.Equal(t, []string{"profissao", "facebook", "instagram"}, payload.Matriz.Columns)
	require.Len(t, payload.Matriz.Rows, 2)
	assert.Equal(t, []string{"Dentista", "30", "20"}, payload.Matriz.Rows[0])

	require.Len(t, payload.Profissoes, 2)
	assert.Equal(t, "Dentista", payload.Profissoes[0].Dimension)
	assert.Equal(t, 50.0, payload.Profissoes[0].Total)
	assert.Equal(t, "Médico", payload.Profissoes[1].Dimension)
	assert.Equal(t, 35.0, payload.Profissoes[1].Total)
}

func TestProfissaoPorCanalLong(t *testing.T) {
	svc := NewService(nil)
	payload := svc.ProfissaoPorCanal(longBlob())

	require.Len(t, payload.Profissoes, 2)
	assert.Equal(t, "medico", payload.Profissoes[0].Dimension)
	assert.Equal(t, 6500.0, payload.Profissoes[0].Total)
	assert.Equal(t, "dentista", payload.Profissoes[1].Dimension)
	assert.Equal(t, 5000.0, payload.Profissoes[1].Total)
	assert.Empty(t, payload.Matriz.Rows)
}

func TestAnaliseRegionalBlocks(t *testing.T) {
	svc := NewService(nil)
	payload := svc.AnaliseRegional(blocksBlob())

	require.Len(t, payload.Estados, 2)
	assert.Equal(t, "SP", payload.Estados[0].Dimension)
	assert.Equal(t, 14.0, payload.Estados[0].Total)
	assert.Equal(t, "MG", payload.Estados[1].Dimension)
	assert.Equal(t, 5.0, payload.Estados[1].Total)

	require.Len(t, payload.Regioes, 1)
	assert.Equal(t, "Sudeste", payload.Regioes[0].Dimension)
	assert.Equal(t, 19.0, payload.Regioes[0].Total)
}

func TestAnaliseRegionalLong(t *testing.T) {
	svc := NewService(nil)
	payload := svc.AnaliseRegional(longBlob())

	require.Len(t, payload.Estados, 2)
	assert.Equal(t, "SP", payload.Estados[0].Dimension)
	assert.Equal(t, 7500.0, payload.Estados[0].Total)
	assert.Equal(t, "RJ", payload.Estados[1].Dimension)

	assert.Empty(t, payload.Regioes, "tabela longa sem coluna regiao")
}

func TestProjecaoResultadosBlocks(t *testing.T) {
	svc := NewService(nil)
	payload := svc.ProjecaoResultados(blocksBlob())

	assert.Equal(t, "R$ 43.125,00", cardValue(t, payload.Cards, "investimento_total"))
	assert.Equal(t, "3,8", cardValue(t, payload.Cards, "roas_geral"))
	assert.Equal(t, "R$ 163.875,00", cardValue(t, payload.Cards, "receita_projetada"))
	assert.Equal(t, "R$ 120.750,00", cardValue(t, payload.Cards, "lucro_projetado"))
}

func TestProjecaoResultadosBlocksSemKPIs(t *testing.T) {
	svc := NewService(nil)
	payload := svc.ProjecaoResultados(domain.DataBlob{Mode: domain.ModeBlocks})

	require.Len(t, payload.Cards, 2)
	assert.Equal(t, "R$ -", cardValue(t, payload.Cards, "investimento_total"))
	assert.Equal(t, "-", cardValue(t, payload.Cards, "roas_geral"))
}

func TestProjecaoResultadosLong(t *testing.T) {
	svc := NewService(nil)
	payload := svc.ProjecaoResultados(longBlob())

	assert.Equal(t, "R$ 11.500,00", cardValue(t, payload.Cards, "receita_realizada"))
	assert.Equal(t, "23", cardValue(t, payload.Cards, "total_vendas"))
	assert.Equal(t, "R$ 500,00", cardValue(t, payload.Cards, "ticket_medio"))
}

func TestAcompanhamentoVendasBlocks(t *testing.T) {
	svc := NewService(nil)
	payload := svc.AcompanhamentoVendas(blocksBlob())

	assert.Equal(t, []string{"data", "produto", "valor_venda", "valor_liquido"}, payload.Vendas.Columns)
	require.Len(t, payload.Vendas.Rows, 2)
	assert.Equal(t, []string{"01/04/2024", "Curso A", "2500", "2200"}, payload.Vendas.Rows[0])

	assert.Equal(t, "2", cardValue(t, payload.Cards, "total_vendas"))
	assert.Equal(t, "R$ 4.000,00", cardValue(t, payload.Cards, "faturamento_bruto"))
	assert.Equal(t, "R$ 3.500,00", cardValue(t, payload.Cards, "faturamento_liquido"))
}

func TestAcompanhamentoVendasLong(t *testing.T) {
	svc := NewService(nil)
	payload := svc.AcompanhamentoVendas(longBlob())

	require.Len(t, payload.Vendas.Rows, 3)
	assert.Equal(t, "23", cardValue(t, payload.Cards, "total_vendas"))
	assert.Equal(t, "R$ 11.500,00", cardValue(t, payload.Cards, "faturamento"))
}

func TestLongFrameFillsEmptyNumericCells(t *testing.T) {
	svc := NewService(nil)
	table := &domain.ExtractedTable{
		Columns: []string{"canal", "valor"},
		Rows: [][]domain.Value{
			{domain.TextValue("facebook"), domain.NumberValue(100)},
			{domain.TextValue("email"), domain.EmptyValue()},
		},
	}
	blob := domain.DataBlob{Mode: domain.ModeLong, Long: table}

	payload := svc.OrigemConversao(blob)
	require.Len(t, payload.Canais, 2)
	assert.Equal(t, "facebook", payload.Canais[0].Dimension)
	assert.Equal(t, 100.0, payload.Canais[0].Total)
	assert.Equal(t, "email", payload.Canais[1].Dimension)
	assert.Equal(t, 0.0, payload.Canais[1].Total)
}

func TestPagesDegradeOnEmptyBlob(t *testing.T) {
	svc := NewService(nil)

	for _, blob := range []domain.DataBlob{
		{Mode: domain.ModeBlocks, Tables: map[string]domain.ExtractedTable{}, Metrics: domain.MetricsMap{}},
		{Mode: domain.ModeLong},
	} {
		resumo := svc.Resumo(blob)
		assert.NotEmpty(t, resumo.Cards)

		assert.Empty(t, svc.OrigemConversao(blob).Canais)
		assert.Empty(t, svc.AnaliseRegional(blob).Estados)
		assert.Empty(t, svc.ProfissaoPorCanal(blob).Profissoes)
		assert.NotEmpty(t, svc.ProjecaoResultados(blob).Cards)
		assert.Empty(t, svc.AcompanhamentoVendas(blob).Vendas.Rows)
	}
}
