// package loader/loader.go

package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"dashboard-service/internal/core/grid"
)

// Source descreve de onde a planilha do dashboard é carregada. As fontes são
// tentadas na ordem: URL de CSV publicado, arquivo XLSX local, URL de XLSX.
type Source struct {
	CSVURL       string
	XLSXPath     string
	XLSXURL      string
	FetchTimeout time.Duration
	// Retries é o número de novas tentativas após a primeira requisição
	// falhar com erro de transporte, 5xx ou 429.
	Retries int

	backoff time.Duration
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultBackoff      = 500 * time.Millisecond
)

var (
	zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}
	oleMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
	utf8BOM  = []byte{0xef, 0xbb, 0xbf}
)

// Service carrega a planilha bruta e a converte em grades por aba.
type Service interface {
	Load(ctx context.Context) ([]grid.Sheet, error)
	LoadBytes(name string, data []byte) ([]grid.Sheet, error)
}

type service struct {
	src    Source
	client *http.Client
	logger *zap.Logger
}

func NewService(src Source, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := src.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &service{
		src:    src,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Load resolve a primeira fonte configurada que rende uma planilha legível.
// Falhas intermediárias são registradas e a próxima fonte é tentada; só o
// esgotamento de todas vira erro.
func (svc *service) Load(ctx context.Context) ([]grid.Sheet, error) {
	type candidate struct {
		ref    string
		remote bool
	}
	var cands []candidate
	if svc.src.CSVURL != "" {
		cands = append(cands, candidate{svc.src.CSVURL, true})
	}
	if svc.src.XLSXPath != "" {
		cands = append(cands, candidate{svc.src.XLSXPath, false})
	}
	if svc.src.XLSXURL != "" {
		cands = append(cands, candidate{svc.src.XLSXURL, true})
	}
	if len(cands) == 0 {
		return nil, ErrSourceUnavailable
	}

	var lastErr error
	for _, cand := range cands {
		var (
			data []byte
			err  error
		)
		if cand.remote {
			data, err = svc.fetch(ctx, cand.ref)
		} else {
			data, err = os.ReadFile(cand.ref)
		}
		if err != nil {
			svc.logger.Warn("fonte de dados indisponível",
				zap.String("fonte", cand.ref),
				zap.Error(err))
			lastErr = err
			continue
		}

		sheets, err := svc.LoadBytes(sourceName(cand.ref), data)
		if err != nil {
			svc.logger.Warn("fonte de dados ilegível",
				zap.String("fonte", cand.ref),
				zap.Error(err))
			lastErr = err
			continue
		}

		svc.logger.Info("planilha carregada",
			zap.String("fonte", cand.ref),
			zap.Int("abas", len(sheets)))
		return sheets, nil
	}

	if errors.Is(lastErr, ErrParseFailure) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, lastErr)
}

// LoadBytes decide o formato do payload pelos bytes mágicos do contêiner:
// ZIP vira XLSX, OLE vira XLS e o resto é tratado como CSV.
func (svc *service) LoadBytes(name string, data []byte) ([]grid.Sheet, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return svc.decodeXLSX(data)
	case bytes.HasPrefix(data, oleMagic):
		return svc.decodeXLS(data)
	default:
		return svc.decodeCSV(name, data)
	}
}

func (svc *service) fetch(ctx context.Context, target string) ([]byte, error) {
	retries := svc.src.Retries
	if retries < 0 {
		retries = 0
	}
	step := svc.src.backoff
	if step <= 0 {
		step = defaultBackoff
	}

	var lastErr error
	for attempt := 0; attempt < retries+1; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * step):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}

		resp, err := svc.client.Do(req)
		if err != nil {
			lastErr = err
			svc.logger.Warn("falha de transporte ao buscar a fonte",
				zap.String("url", target),
				zap.Int("tentativa", attempt+1),
				zap.Error(err))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("http status %d", resp.StatusCode)
			svc.logger.Warn("resposta transitória da fonte",
				zap.String("url", target),
				zap.Int("status", resp.StatusCode),
				zap.Int("tentativa", attempt+1))
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("http status %d para %s", resp.StatusCode, target)
		}
		return body, nil
	}
	return nil, lastErr
}

func (svc *service) decodeXLSX(data []byte) ([]grid.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	defer f.Close()

	var sheets []grid.Sheet
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("%w: aba %q: %v", ErrParseFailure, sheetName, err)
		}
		sheets = append(sheets, grid.Sheet{Name: sheetName, Grid: grid.FromStrings(rows)})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: pasta de trabalho sem abas", ErrParseFailure)
	}
	return sheets, nil
}

func (svc *service) decodeXLS(data []byte) ([]grid.Sheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, fmt.Errorf("%w: o arquivo .xls não contém planilhas", ErrParseFailure)
	}

	var sheets []grid.Sheet
	for i := range workbook.GetSheets() {
		sheet, err := workbook.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("%w: erro ao obter planilha do arquivo .xls: %v", ErrParseFailure, err)
		}
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, grid.Sheet{Name: sheet.GetName(), Grid: grid.FromStrings(rows)})
	}
	return sheets, nil
}

// decodeCSV lê o payload como CSV de uma única aba. A primeira linha NÃO é
// tratada como cabeçalho; o extrator decide isso depois.
func (svc *service) decodeCSV(name string, data []byte) ([]grid.Sheet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	if name == "" {
		name = "planilha"
	}
	return []grid.Sheet{{Name: name, Grid: grid.FromStrings(records)}}, nil
}

// sniffDelimiter escolhe o separador mais frequente na primeira linha não
// vazia. Exportações brasileiras costumam usar ';', então ele vence empates.
func sniffDelimiter(data []byte) rune {
	candidates := []rune{';', ',', '\t'}
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	for _, line := range strings.Split(string(head), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		best := ','
		bestCount := 0
		for _, cand := range candidates {
			if count := strings.Count(line, string(cand)); count > bestCount {
				best = cand
				bestCount = count
			}
		}
		if bestCount > 0 {
			return best
		}
	}
	return ','
}

// sourceName extrai um nome de aba apresentável a partir do caminho ou URL da
// fonte, usado quando o payload CSV não carrega nome próprio.
func sourceName(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}
	base := filepath.Base(ref)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return "planilha"
	}
	return base
}
