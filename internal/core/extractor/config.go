package extractor

// MatchMode define como um token de seção é comparado com a célula de rótulo.
type MatchMode uint8

// Modos de casamento de token.
const (
	// MatchContains casa quando a célula contém o token (forma Fold).
	MatchContains MatchMode = iota
	// MatchEqual exige igualdade exata na forma Fold.
	MatchEqual
)

// HeaderRule define como a linha de cabeçalho de uma seção é localizada.
type HeaderRule uint8

// Regras de cabeçalho.
const (
	// HeaderNextRow assume o cabeçalho na linha seguinte à âncora.
	HeaderNextRow HeaderRule = iota
	// HeaderScored varre uma janela a partir da âncora pontuando células que
	// contêm palavras-chave esperadas; empate escolhe a linha mais alta.
	HeaderScored
)

// StopRule define a condição de término dos dados de uma seção.
type StopRule uint8

// Regras de término.
const (
	// StopTotal termina na primeira linha cujo rótulo começa com "total",
	// ou quando rótulo e célula adjacente estão ambos vazios.
	StopTotal StopRule = iota
	// StopDoubleBlank termina após duas linhas totalmente vazias seguidas;
	// uma linha vazia isolada é pulada sem encerrar a seção.
	StopDoubleBlank
	// StopSingleBlank termina na primeira linha totalmente vazia.
	StopSingleBlank
	// StopNextToken termina quando o rótulo casa com token de outra seção.
	StopNextToken
)

// SectionSpec descreve uma seção do template de blocos.
type SectionSpec struct {
	Key            string
	Tokens         []string
	Match          MatchMode
	Header         HeaderRule
	HeaderKeywords []string
	MinKeywordHits int
	MinFilledCells int
	Stop           StopRule

	// SkipTotalRows pula linhas de total embutidas nos dados, sem encerrar
	// a seção (linhas de pivô como "Total Geral").
	SkipTotalRows bool

	// Dimension renomeia a primeira coluna para o nome canônico da dimensão.
	Dimension string
	// CurrencyColumns e DateColumns listam slugs com coerção forçada.
	CurrencyColumns []string
	DateColumns     []string
}

// KVSpec descreve o bloco de KPIs campo/valor.
type KVSpec struct {
	FieldAliases []string
	ValueAliases []string
}

// Config reúne os parâmetros heurísticos da extração. Os valores nunca são
// embutidos nos algoritmos: toda leitura passa por esta estrutura.
type Config struct {
	// LabelColumn é a coluna onde tokens de seção e rótulos são procurados.
	LabelColumn int
	// HeaderLookahead limita a varredura de cabeçalho a partir da âncora.
	HeaderLookahead int
	// NumericThreshold é a fração mínima de valores não vazios que precisam
	// parsear como número para a coluna ser tratada como numérica.
	NumericThreshold float64

	// PreferredSheets é a ordem de preferência de abas na classificação.
	PreferredSheets []string
	// LongDimensions/LongMetrics definem o predicado do modo long.
	LongDimensions []string
	LongMetrics    []string
	// LongDateColumns lista slugs coagidos como data no modo long.
	LongDateColumns []string

	Sections []SectionSpec
	KV       KVSpec
}

var (
	professionKeywords = []string{
		"dentista", "fisioterapeuta", "fonoaudiologo", "medico",
		"nutricionista", "psicoterapeuta", "psicologo", "veterinario",
	}
	channelKeywords = []string{
		"facebook", "instagram", "youtube", "email", "googlesearch",
		"manychat", "redirect",
	}
)

// DefaultConfig devolve o mapeamento do template de inputs do dashboard.
func DefaultConfig() Config {
	return Config{
		LabelColumn:      0,
		HeaderLookahead:  15,
		NumericThreshold: 0.5,
		PreferredSheets:  []string{"inputs_dashboard_cht22"},
		LongDimensions:   []string{"estado", "regiao", "canal", "profissao"},
		LongMetrics:      []string{"valor", "vendas"},
		LongDateColumns:  []string{"data"},
		Sections: []SectionSpec{
			{
				Key:             "vendas_realizadas",
				Tokens:          []string{"vendas realizadas"},
				Match:           MatchContains,
				Header:          HeaderNextRow,
				Stop:            StopTotal,
				Dimension:       "data",
				CurrencyColumns: []string{"valor_venda", "valor_liquido"},
				DateColumns:     []string{"data"},
			},
			{
				Key:            "estado_x_profissao",
				Tokens:         []string{"estado x profissao", "estado"},
				Match:          MatchContains,
				Header:         HeaderScored,
				HeaderKeywords: professionKeywords,
				MinKeywordHits: 2,
				MinFilledCells: 3,
				Stop:           StopDoubleBlank,
				SkipTotalRows:  true,
				Dimension:      "estado",
			},
			{
				Key:            "regiao_x_profissao",
				Tokens:         []string{"regiao x profissao", "regiao"},
				Match:          MatchContains,
				Header:         HeaderScored,
				HeaderKeywords: professionKeywords,
				MinKeywordHits: 2,
				MinFilledCells: 3,
				Stop:           StopDoubleBlank,
				SkipTotalRows:  true,
				Dimension:      "regiao",
			},
			{
				Key:            "profissoes_x_canais",
				Tokens:         []string{"profissoes x canais", "rotulos de linha"},
				Match:          MatchContains,
				Header:         HeaderScored,
				HeaderKeywords: channelKeywords,
				MinKeywordHits: 2,
				MinFilledCells: 3,
				Stop:           StopSingleBlank,
				SkipTotalRows:  true,
				Dimension:      "profissao",
			},
		},
		KV: KVSpec{
			FieldAliases: []string{"campo", "campos", "kpi", "variavel", "variavel_kpi"},
			ValueAliases: []string{"valor_atual", "valor", "valoratual"},
		},
	}
}
