// package domain/models.go
package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Mode identifies the layout detected for a source spreadsheet.
type Mode string

// Constants for the supported layouts.
const (
	// ModeLong is a tidy sheet: first row is the header, one record per row.
	ModeLong Mode = "long"
	// ModeBlocks is a template sheet with stacked report sections.
	ModeBlocks Mode = "blocks"
)

// ValueKind discriminates the variants of a Value.
type ValueKind uint8

// Constants for the possible value kinds.
const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
	KindDate
)

// --- Modelos de valores extraídos ---

// Value é uma célula tipada de uma tabela extraída: vazia, texto, número ou data.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Date   time.Time
}

// EmptyValue retorna o valor vazio.
func EmptyValue() Value {
	return Value{Kind: KindEmpty}
}

// TextValue cria um valor textual.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// NumberValue cria um valor numérico.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// DateValue cria um valor de data.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: t}
}

// IsEmpty indica se o valor é o vazio.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// String devolve a renderização textual usada nas amostras de diagnóstico.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindDate:
		return v.Date.Format("02/01/2006")
	default:
		return ""
	}
}

// MarshalJSON serializa o valor: vazio vira null, número vira número JSON,
// texto vira string e data vira "AAAA-MM-DD".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindDate:
		return json.Marshal(v.Date.Format("2006-01-02"))
	default:
		return []byte("null"), nil
	}
}

// --- Modelos de tabelas e métricas ---

// ExtractedTable is an ordered set of named columns plus typed rows.
// Every row holds exactly len(Columns) values.
type ExtractedTable struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// Empty reports whether the table has no rows.
func (t ExtractedTable) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of a column name, or -1 when absent.
func (t ExtractedTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

const maxSampleRows = 5

// Summary condensa a tabela na visão de diagnóstico servida por /api/v1/blob.
func (t ExtractedTable) Summary(key string) TableSummary {
	s := TableSummary{
		Key:     key,
		RowsN:   len(t.Rows),
		ColsN:   len(t.Columns),
		Columns: t.Columns,
	}
	for i, row := range t.Rows {
		if i == maxSampleRows {
			break
		}
		sample := make([]string, len(row))
		for j, v := range row {
			sample[j] = v.String()
		}
		s.Sample = append(s.Sample, sample)
	}
	return s
}

// MetricsMap guarda métricas pontuais (KPIs) por chave normalizada.
type MetricsMap map[string]Value

// Number returns a metric as float64 when it holds a numeric value.
func (m MetricsMap) Number(key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Keys lists the metric keys present, in sorted order.
func (m MetricsMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Modelo do blob de dados ---

// DataBlob is the single artifact produced from one source read. In long mode
// only Long is set; in blocks mode Tables and Metrics are set.
type DataBlob struct {
	Mode    Mode                      `json:"mode"`
	Long    *ExtractedTable           `json:"table,omitempty"`
	Tables  map[string]ExtractedTable `json:"tables,omitempty"`
	Metrics MetricsMap                `json:"metrics,omitempty"`
}

// Table devolve uma tabela do modo blocks pela chave, vazia quando ausente.
func (b DataBlob) Table(key string) ExtractedTable {
	if b.Tables == nil {
		return ExtractedTable{}
	}
	return b.Tables[key]
}

// HasMetrics indica se o blob carrega ao menos um KPI.
func (b DataBlob) HasMetrics() bool {
	return len(b.Metrics) > 0
}

// TableKeys lists the blocks-mode table keys in sorted order.
func (b DataBlob) TableKeys() []string {
	keys := make([]string, 0, len(b.Tables))
	for k := range b.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TableSummary descreve uma tabela para fins de diagnóstico.
type TableSummary struct {
	Key     string     `json:"key"`
	RowsN   int        `json:"rows"`
	ColsN   int        `json:"cols"`
	Columns []string   `json:"columns"`
	Sample  [][]string `json:"sample,omitempty"`
}

// Summaries lists every table of the blob in a stable order. The long-mode
// table is reported under the key "data".
func (b DataBlob) Summaries() []TableSummary {
	if b.Mode == ModeLong {
		if b.Long == nil {
			return nil
		}
		return []TableSummary{b.Long.Summary("data")}
	}
	out := make([]TableSummary, 0, len(b.Tables))
	for _, k := range b.TableKeys() {
		out = append(out, b.Tables[k].Summary(k))
	}
	return out
}
