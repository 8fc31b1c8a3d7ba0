package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"

	"dashboard-service/internal/domain"
)

// Chaves das seções do modo blocks, alinhadas com a configuração padrão do
// extrator.
const (
	tableVendas           = "vendas_realizadas"
	tableEstadoProfissao  = "estado_x_profissao"
	tableRegiaoProfissao  = "regiao_x_profissao"
	tableProfissoesCanais = "profissoes_x_canais"
)

// Card é um indicador formatado pronto para exibição.
type Card struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// TablePayload é uma tabela estampada em texto para renderização direta.
type TablePayload struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RankingEntry é uma linha de ranking dimensão → total.
type RankingEntry struct {
	Dimension string  `json:"dimension"`
	Total     float64 `json:"total"`
	Display   string  `json:"display"`
}

// ResumoPayload traz os indicadores do topo do dashboard.
type ResumoPayload struct {
	Mode  domain.Mode `json:"mode"`
	Cards []Card      `json:"cards"`
}

// VisaoGeralPayload combina os indicadores com o inventário de seções.
type VisaoGeralPayload struct {
	Mode     domain.Mode           `json:"mode"`
	Cards    []Card                `json:"cards"`
	Sections []domain.TableSummary `json:"sections"`
}

// OrigemConversaoPayload ranqueia os canais de aquisição.
type OrigemConversaoPayload struct {
	Mode   domain.Mode    `json:"mode"`
	Canais []RankingEntry `json:"canais"`
}

// ProfissaoPorCanalPayload expõe a matriz profissão × canal e o ranking
// por profissão.
type ProfissaoPorCanalPayload struct {
	Mode       domain.Mode    `json:"mode"`
	Matriz     TablePayload   `json:"matriz"`
	Profissoes []RankingEntry `json:"profissoes"`
}

// AnaliseRegionalPayload ranqueia estados e regiões.
type AnaliseRegionalPayload struct {
	Mode    domain.Mode    `json:"mode"`
	Estados []RankingEntry `json:"estados"`
	Regioes []RankingEntry `json:"regioes"`
}

// ProjecaoPayload projeta receita a partir de investimento × ROAS.
type ProjecaoPayload struct {
	Mode  domain.Mode `json:"mode"`
	Cards []Card      `json:"cards"`
}

// AcompanhamentoPayload lista as vendas registradas e seus totais.
type AcompanhamentoPayload struct {
	Mode   domain.Mode  `json:"mode"`
	Vendas TablePayload `json:"vendas"`
	Cards  []Card       `json:"cards"`
}

// Service monta os payloads dos painéis a partir de um blob extraído. Todos
// os construtores toleram blobs vazios e devolvem payloads neutros, nunca erro.
type Service interface {
	Resumo(blob domain.DataBlob) ResumoPayload
	VisaoGeral(blob domain.DataBlob) VisaoGeralPayload
	OrigemConversao(blob domain.DataBlob) OrigemConversaoPayload
	ProfissaoPorCanal(blob domain.DataBlob) ProfissaoPorCanalPayload
	AnaliseRegional(blob domain.DataBlob) AnaliseRegionalPayload
	ProjecaoResultados(blob domain.DataBlob) ProjecaoPayload
	AcompanhamentoVendas(blob domain.DataBlob) AcompanhamentoPayload
}

type service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{logger: logger}
}

// ---------------------- Painéis ----------------------

func (svc *service) Resumo(blob domain.DataBlob) ResumoPayload {
	return ResumoPayload{Mode: blob.Mode, Cards: svc.topCards(blob)}
}

func (svc *service) VisaoGeral(blob domain.DataBlob) VisaoGeralPayload {
	return VisaoGeralPayload{
		Mode:     blob.Mode,
		Cards:    svc.topCards(blob),
		Sections: blob.Summaries(),
	}
}

func (svc *service) OrigemConversao(blob domain.DataBlob) OrigemConversaoPayload {
	payload := OrigemConversaoPayload{Mode: blob.Mode}
	if blob.Mode == domain.ModeLong {
		payload.Canais = svc.longRanking(blob, "canal")
		return payload
	}
	payload.Canais = columnRanking(blob.Table(tableProfissoesCanais), FormatIntPTBR)
	return payload
}

func (svc *service) ProfissaoPorCanal(blob domain.DataBlob) ProfissaoPorCanalPayload {
	payload := ProfissaoPorCanalPayload{Mode: blob.Mode}
	if blob.Mode == domain.ModeLong {
		payload.Profissoes = svc.longRanking(blob, "profissao")
		return payload
	}
	matriz := blob.Table(tableProfissoesCanais)
	payload.Matriz = tablePayload(matriz)
	payload.Profissoes = rowRanking(matriz, FormatIntPTBR)
	return payload
}

func (svc *service) AnaliseRegional(blob domain.DataBlob) AnaliseRegionalPayload {
	payload := AnaliseRegionalPayload{Mode: blob.Mode}
	if blob.Mode == domain.ModeLong {
		payload.Estados = svc.longRanking(blob, "estado")
		payload.Regioes = svc.longRanking(blob, "regiao")
		return payload
	}
	payload.Estados = rowRanking(blob.Table(tableEstadoProfissao), FormatIntPTBR)
	payload.Regioes = rowRanking(blob.Table(tableRegiaoProfissao), FormatIntPTBR)
	return payload
}

func (svc *service) ProjecaoResultados(blob domain.DataBlob) ProjecaoPayload {
	payload := ProjecaoPayload{Mode: blob.Mode}

	if blob.Mode == domain.ModeLong {
		receita, okReceita := svc.longSum(blob, "valor")
		vendas, okVendas := svc.longSum(blob, "vendas")
		payload.Cards = []Card{
			{Key: "receita_realizada", Label: "Receita Realizada", Value: moneyCard(receita, okReceita)},
			{Key: "total_vendas", Label: "Total de Vendas", Value: intCard(vendas, okVendas)},
		}
		if okReceita && okVendas && vendas > 0 {
			payload.Cards = append(payload.Cards, Card{
				Key:   "ticket_medio",
				Label: "Ticket Médio",
				Value: FormatMoneyPTBR(receita / vendas),
			})
		}
		return payload
	}

	investimento, okInv := blob.Metrics.Number("investimento_total")
	roas, okRoas := blob.Metrics.Number("roas_geral")
	payload.Cards = []Card{
		{Key: "investimento_total", Label: "Investimento Total", Value: moneyCard(investimento, okInv)},
		{Key: "roas_geral", Label: "ROAS Geral", Value: numberCard(roas, okRoas)},
	}
	if okInv && okRoas {
		receita := investimento * roas
		payload.Cards = append(payload.Cards,
			Card{Key: "receita_projetada", Label: "Receita Projetada", Value: FormatMoneyPTBR(receita)},
			Card{Key: "lucro_projetado", Label: "Lucro Projetado", Value: FormatMoneyPTBR(receita - investimento)},
		)
	}
	return payload
}

func (svc *service) AcompanhamentoVendas(blob domain.DataBlob) AcompanhamentoPayload {
	payload := AcompanhamentoPayload{Mode: blob.Mode}

	if blob.Mode == domain.ModeLong {
		if blob.Long != nil {
			payload.Vendas = tablePayload(*blob.Long)
		}
		vendas, okVendas := svc.longSum(blob, "vendas")
		valor, okValor := svc.longSum(blob, "valor")
		payload.Cards = []Card{
			{Key: "total_vendas", Label: "Total de Vendas", Value: intCard(vendas, okVendas)},
			{Key: "faturamento", Label: "Faturamento", Value: moneyCard(valor, okValor)},
		}
		return payload
	}

	tbl := blob.Table(tableVendas)
	payload.Vendas = tablePayload(tbl)

	bruto, okBruto := sumColumn(tbl, "valor_venda")
	liquido, okLiquido := sumColumn(tbl, "valor_liquido")
	payload.Cards = []Card{
		{Key: "total_vendas", Label: "Vendas no Período", Value: FormatIntPTBR(float64(len(tbl.Rows)))},
		{Key: "faturamento_bruto", Label: "Faturamento Bruto", Value: moneyCard(bruto, okBruto)},
		{Key: "faturamento_liquido", Label: "Faturamento Líquido", Value: moneyCard(liquido, okLiquido)},
	}
	return payload
}

// ---------------------- Indicadores ----------------------

func (svc *service) topCards(blob domain.DataBlob) []Card {
	if blob.Mode == domain.ModeLong {
		leads, okLeads := svc.longSum(blob, "leads")
		vendas, okVendas := svc.longSum(blob, "vendas")
		valor, okValor := svc.longSum(blob, "valor")
		return []Card{
			{Key: "total_leads", Label: "Total de Leads", Value: intCard(leads, okLeads)},
			{Key: "total_vendas", Label: "Total de Vendas", Value: intCard(vendas, okVendas)},
			{Key: "faturamento", Label: "Faturamento", Value: moneyCard(valor, okValor)},
		}
	}
	return []Card{
		metricCard(blob.Metrics, "total_leads", "Total de Leads", FormatIntPTBR),
		metricCard(blob.Metrics, "cpl_medio", "CPL Médio", FormatMoneyPTBR),
		metricCard(blob.Metrics, "investimento_total", "Investimento Total", FormatMoneyPTBR),
		metricCard(blob.Metrics, "roas_geral", "ROAS Geral", FormatNumberPTBR),
	}
}

// metricCard formata um KPI pontual. Métrica ausente vira "-" e métrica
// textual é exibida como veio da planilha.
func metricCard(metrics domain.MetricsMap, key, label string, format func(float64) string) Card {
	card := Card{Key: key, Label: label, Value: "-"}
	v, ok := metrics[key]
	if !ok {
		return card
	}
	switch v.Kind {
	case domain.KindNumber:
		card.Value = format(v.Number)
	case domain.KindText:
		card.Value = v.Text
	}
	return card
}

func intCard(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return FormatIntPTBR(v)
}

func moneyCard(v float64, ok bool) string {
	if !ok {
		return "R$ -"
	}
	return FormatMoneyPTBR(v)
}

func numberCard(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return FormatNumberPTBR(v)
}

// ---------------------- Agregações da tabela longa ----------------------

// longFrame materializa a tabela longa como dataframe. Células vazias de
// colunas numéricas viram "0" para não contaminar as somas com NaN.
func (svc *service) longFrame(blob domain.DataBlob) (dataframe.DataFrame, bool) {
	if blob.Long == nil || blob.Long.Empty() || len(blob.Long.Columns) == 0 {
		return dataframe.DataFrame{}, false
	}
	tbl := *blob.Long

	numeric := make([]bool, len(tbl.Columns))
	for c := range tbl.Columns {
		hasNumber := false
		hasOther := false
		for _, row := range tbl.Rows {
			switch row[c].Kind {
			case domain.KindNumber:
				hasNumber = true
			case domain.KindText, domain.KindDate:
				hasOther = true
			}
		}
		numeric[c] = hasNumber && !hasOther
	}

	records := make([][]string, 0, len(tbl.Rows)+1)
	records = append(records, tbl.Columns)
	for _, row := range tbl.Rows {
		rec := make([]string, len(row))
		for c, v := range row {
			switch {
			case v.Kind == domain.KindEmpty && numeric[c]:
				rec[c] = "0"
			case v.Kind == domain.KindDate:
				rec[c] = v.Date.Format("2006-01-02")
			default:
				rec[c] = v.String()
			}
		}
		records = append(records, rec)
	}

	df := dataframe.LoadRecords(records)
	if df.Err != nil {
		svc.logger.Debug("tabela longa não materializou como dataframe", zap.Error(df.Err))
		return dataframe.DataFrame{}, false
	}
	return df, true
}

func (svc *service) longSum(blob domain.DataBlob, col string) (float64, bool) {
	df, ok := svc.longFrame(blob)
	if !ok || !hasColumn(df.Names(), col) {
		return 0, false
	}
	sum := df.Col(col).Sum()
	if math.IsNaN(sum) {
		return 0, false
	}
	return sum, true
}

// longRanking agrupa a tabela longa por uma dimensão e soma a melhor métrica
// disponível (valor, senão vendas, senão leads), do maior para o menor.
func (svc *service) longRanking(blob domain.DataBlob, dim string) []RankingEntry {
	df, ok := svc.longFrame(blob)
	if !ok || !hasColumn(df.Names(), dim) {
		return nil
	}

	metric := ""
	display := FormatIntPTBR
	for _, cand := range []string{"valor", "vendas", "leads"} {
		if hasColumn(df.Names(), cand) {
			metric = cand
			if cand == "valor" {
				display = FormatMoneyPTBR
			}
			break
		}
	}
	if metric == "" {
		return nil
	}

	groups := df.GroupBy(dim)
	if groups == nil || groups.Err != nil {
		return nil
	}
	agg := groups.Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_SUM},
		[]string{metric},
	)
	if agg.Err != nil {
		svc.logger.Debug("agregação da tabela longa falhou",
			zap.String("dimensao", dim),
			zap.Error(agg.Err))
		return nil
	}

	sumCol := metric + "_SUM"
	sorted := agg.Arrange(dataframe.RevSort(sumCol))
	if sorted.Err != nil {
		return nil
	}

	var entries []RankingEntry
	for _, rec := range sorted.Maps() {
		total, okTotal := toFloat(rec[sumCol])
		if !okTotal || math.IsNaN(total) {
			continue
		}
		entries = append(entries, RankingEntry{
			Dimension: fmt.Sprint(rec[dim]),
			Total:     total,
			Display:   display(total),
		})
	}
	return entries
}

// ---------------------- Somas do modo blocks ----------------------

func sumColumn(tbl domain.ExtractedTable, col string) (float64, bool) {
	idx := tbl.ColumnIndex(col)
	if idx < 0 {
		return 0, false
	}
	total := 0.0
	found := false
	for _, row := range tbl.Rows {
		if v := row[idx]; v.Kind == domain.KindNumber {
			total += v.Number
			found = true
		}
	}
	return total, found
}

// rowRanking soma as células numéricas de cada linha (fora a dimensão) e
// ordena do maior para o menor.
func rowRanking(tbl domain.ExtractedTable, display func(float64) string) []RankingEntry {
	if tbl.Empty() || len(tbl.Columns) == 0 {
		return nil
	}
	var entries []RankingEntry
	for _, row := range tbl.Rows {
		name := row[0].String()
		if name == "" {
			continue
		}
		total := 0.0
		found := false
		for c := 1; c < len(row); c++ {
			if row[c].Kind == domain.KindNumber {
				total += row[c].Number
				found = true
			}
		}
		if !found {
			continue
		}
		entries = append(entries, RankingEntry{Dimension: name, Total: total, Display: display(total)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })
	return entries
}

// columnRanking soma cada coluna fora a dimensão e ordena do maior para o
// menor. Colunas sem nenhuma célula numérica ficam de fora.
func columnRanking(tbl domain.ExtractedTable, display func(float64) string) []RankingEntry {
	var entries []RankingEntry
	for c := 1; c < len(tbl.Columns); c++ {
		total, found := sumColumn(tbl, tbl.Columns[c])
		if !found {
			continue
		}
		entries = append(entries, RankingEntry{Dimension: tbl.Columns[c], Total: total, Display: display(total)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })
	return entries
}

func tablePayload(tbl domain.ExtractedTable) TablePayload {
	payload := TablePayload{Columns: tbl.Columns}
	for _, row := range tbl.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		payload.Rows = append(payload.Rows, cells)
	}
	return payload
}

func hasColumn(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
