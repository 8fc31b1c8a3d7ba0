package loader

import "errors"

// ErrSourceUnavailable indica que nenhuma fonte configurada respondeu com dados.
var ErrSourceUnavailable = errors.New("nenhuma fonte de dados disponível")

// ErrParseFailure indica que a fonte respondeu, mas o conteúdo não pôde ser
// interpretado como planilha (CSV, XLSX ou XLS).
var ErrParseFailure = errors.New("falha ao interpretar a planilha")
