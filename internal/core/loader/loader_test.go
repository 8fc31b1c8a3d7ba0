package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadBytesCSVDelimiters(t *testing.T) {
	svc := NewService(Source{}, nil)

	cases := []struct {
		name string
		data string
	}{
		{"ponto e vírgula", "Estado;Leads;Vendas\nSP;1200;96"},
		{"vírgula", "Estado,Leads,Vendas\nSP,1200,96"},
		{"tabulação", "Estado\tLeads\tVendas\nSP\t1200\t96"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sheets, err := svc.LoadBytes("dados", []byte(tc.data))
			require.NoError(t, err)
			require.Len(t, sheets, 1)

			g := sheets[0].Grid
			assert.Equal(t, 2, g.NumRows())
			assert.Equal(t, 3, g.NumCols())
			assert.Equal(t, "Estado", g.Text(0, 0))

			n, ok := g.Number(1, 1)
			require.True(t, ok)
			assert.Equal(t, 1200.0, n)
		})
	}
}

func TestLoadBytesCSVBOM(t *testing.T) {
	svc := NewService(Source{}, nil)

	data := append([]byte{0xef, 0xbb, 0xbf}, []byte("Campo,Valor Atual\nTotal de Leads,3450")...)
	sheets, err := svc.LoadBytes("dados", data)
	require.NoError(t, err)
	assert.Equal(t, "Campo", sheets[0].Grid.Text(0, 0))
}

func TestLoadBytesCSVLatin1(t *testing.T) {
	svc := NewService(Source{}, nil)

	// "Região;Valor" em ISO-8859-1: 0xE3 é o 'ã' e invalida o UTF-8.
	data := []byte("Regi\xe3o;Valor\nSudeste;1500")
	sheets, err := svc.LoadBytes("dados", data)
	require.NoError(t, err)
	assert.Equal(t, "Região", sheets[0].Grid.Text(0, 0))
	assert.Equal(t, "Sudeste", sheets[0].Grid.Text(1, 0))
}

func TestLoadBytesXLSXAllSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "A1", "Campo")
	f.SetCellValue("Sheet1", "B1", "Valor Atual")
	f.SetCellValue("Sheet1", "A2", "Total de Leads")
	f.SetCellValue("Sheet1", "B2", 3450)

	_, err := f.NewSheet("aux")
	require.NoError(t, err)
	f.SetCellValue("aux", "A1", "nota")

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	svc := NewService(Source{}, nil)
	sheets, err := svc.LoadBytes("dados.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	assert.Equal(t, "Sheet1", sheets[0].Name)
	assert.Equal(t, "aux", sheets[1].Name)
	assert.Equal(t, "Campo", sheets[0].Grid.Text(0, 0))

	n, ok := sheets[0].Grid.Number(1, 1)
	require.True(t, ok)
	assert.Equal(t, 3450.0, n)
}

func TestLoadBytesEmptyPayload(t *testing.T) {
	svc := NewService(Source{}, nil)

	sheets, err := svc.LoadBytes("vazio", nil)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 0, sheets[0].Grid.NumRows())
}

func TestLoadBytesCorruptWorkbook(t *testing.T) {
	svc := NewService(Source{}, nil)

	_, err := svc.LoadBytes("dados", []byte{0x50, 0x4b, 0x03, 0x04, 0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrParseFailure)
}

func TestLoadRetriesTransientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("Estado;Vendas\nSP;10"))
	}))
	defer srv.Close()

	svc := NewService(Source{CSVURL: srv.URL, Retries: 3, backoff: time.Millisecond}, nil)
	sheets, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, "SP", sheets[0].Grid.Text(1, 0))
}

func TestLoadFallsBackToLocalXLSX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Campo")
	f.SetCellValue("Sheet1", "B1", "Valor Atual")

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))

	svc := NewService(Source{CSVURL: srv.URL, XLSXPath: path, Retries: 1, backoff: time.Millisecond}, nil)
	sheets, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Sheet1", sheets[0].Name)
	assert.Equal(t, "Campo", sheets[0].Grid.Text(0, 0))
}

func TestLoadWithoutSources(t *testing.T) {
	svc := NewService(Source{}, nil)

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestLoadExhaustsSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := Source{
		CSVURL:   srv.URL,
		XLSXPath: filepath.Join(t.TempDir(), "inexistente.xlsx"),
		backoff:  time.Millisecond,
	}
	svc := NewService(src, nil)

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestLoadHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(Source{CSVURL: srv.URL, Retries: 5, backoff: 10 * time.Millisecond}, nil)
	_, err := svc.Load(ctx)
	require.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	cases := []struct {
		name string
		data string
		want rune
	}{
		{"ponto e vírgula", "a;b;c\n1;2;3", ';'},
		{"vírgula", "a,b,c", ','},
		{"tabulação", "a\tb\tc", '\t'},
		{"frequência decide", "a;b,c,d", ','},
		{"linha de título sem separador", "RELATÓRIO\na;b;c", ';'},
		{"sem separador", "apenasumacoluna", ','},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sniffDelimiter([]byte(tc.data)))
		})
	}
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "data", sourceName("/tmp/data.xlsx"))
	assert.Equal(t, "pub", sourceName("https://docs.google.com/spreadsheets/d/e/chave/pub?gid=0&single=true&output=csv"))
	assert.Equal(t, "planilha", sourceName(""))
}
