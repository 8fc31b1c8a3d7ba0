package handlers

import (
	"context"
	"net/http"
	"time"

	"dashboard-service/internal/api/responses"
	"dashboard-service/internal/core/report"
	"dashboard-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// BlobProvider entrega o blob extraído vigente e controla sua renovação.
// O cache.Store satisfaz a interface.
type BlobProvider interface {
	Get(ctx context.Context) (domain.DataBlob, error)
	Refresh(ctx context.Context) (domain.DataBlob, error)
	LoadedAt() time.Time
}

// DashboardHandler lida com as requisições da API do dashboard.
type DashboardHandler struct {
	provider BlobProvider
	reports  report.Service
}

// NewDashboardHandler cria um novo handler do dashboard.
func NewDashboardHandler(provider BlobProvider, reports report.Service) *DashboardHandler {
	return &DashboardHandler{
		provider: provider,
		reports:  reports,
	}
}

type statusPayload struct {
	Mode        domain.Mode `json:"mode"`
	LoadedAtUTC string      `json:"loaded_at_utc"`
	HasKPIs     bool        `json:"has_kpis"`
	Keys        []string    `json:"keys"`
}

type blobPayload struct {
	Mode        domain.Mode           `json:"mode"`
	LoadedAtUTC string                `json:"loaded_at_utc"`
	Sections    []domain.TableSummary `json:"sections"`
	Metrics     domain.MetricsMap     `json:"metrics,omitempty"`
}

type reloadPayload struct {
	OK          bool        `json:"ok"`
	Mode        domain.Mode `json:"mode"`
	LoadedAtUTC string      `json:"loaded_at_utc"`
}

// currentBlob resolve o blob vigente ou responde o erro padrão da API.
func (h *DashboardHandler) currentBlob(c *gin.Context) (domain.DataBlob, bool) {
	blob, err := h.provider.Get(c.Request.Context())
	if err != nil {
		responses.Error(c, http.StatusBadGateway, "Fonte de dados indisponível", err.Error())
		return domain.DataBlob{}, false
	}
	return blob, true
}

func (h *DashboardHandler) loadedAtUTC() string {
	loadedAt := h.provider.LoadedAt()
	if loadedAt.IsZero() {
		return ""
	}
	return loadedAt.UTC().Format(time.RFC3339)
}

// HandleStatus resume o estado do blob em memória.
func (h *DashboardHandler) HandleStatus(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}

	keys := blob.TableKeys()
	if blob.Mode == domain.ModeLong {
		keys = []string{"data"}
	}

	responses.Success(c, statusPayload{
		Mode:        blob.Mode,
		LoadedAtUTC: h.loadedAtUTC(),
		HasKPIs:     blob.HasMetrics(),
		Keys:        keys,
	}, "Status do dashboard")
}

// HandleBlob exporta contagens e amostras de cada seção, para depuração.
func (h *DashboardHandler) HandleBlob(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}

	responses.Success(c, blobPayload{
		Mode:        blob.Mode,
		LoadedAtUTC: h.loadedAtUTC(),
		Sections:    blob.Summaries(),
		Metrics:     blob.Metrics,
	}, "Diagnóstico do blob")
}

// HandleReload força a recarga da fonte de dados.
func (h *DashboardHandler) HandleReload(c *gin.Context) {
	blob, err := h.provider.Refresh(c.Request.Context())
	if err != nil {
		responses.Error(c, http.StatusBadGateway, "Falha ao recarregar os dados", err.Error())
		return
	}

	responses.Success(c, reloadPayload{
		OK:          true,
		Mode:        blob.Mode,
		LoadedAtUTC: h.loadedAtUTC(),
	}, "Dados recarregados")
}

// HandleResumo responde o painel de resumo.
func (h *DashboardHandler) HandleResumo(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.Resumo(blob), "Painel resumo")
}

// HandleVisaoGeral responde o painel de visão geral.
func (h *DashboardHandler) HandleVisaoGeral(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.VisaoGeral(blob), "Painel visão geral")
}

// HandleOrigemConversao responde o painel de origem e conversão.
func (h *DashboardHandler) HandleOrigemConversao(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.OrigemConversao(blob), "Painel origem e conversão")
}

// HandleProfissaoPorCanal responde o painel de profissão por canal.
func (h *DashboardHandler) HandleProfissaoPorCanal(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.ProfissaoPorCanal(blob), "Painel profissão por canal")
}

// HandleAnaliseRegional responde o painel de análise regional.
func (h *DashboardHandler) HandleAnaliseRegional(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.AnaliseRegional(blob), "Painel análise regional")
}

// HandleProjecaoResultados responde o painel de projeção de resultados.
func (h *DashboardHandler) HandleProjecaoResultados(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.ProjecaoResultados(blob), "Painel projeção de resultados")
}

// HandleAcompanhamentoVendas responde o painel de acompanhamento de vendas.
func (h *DashboardHandler) HandleAcompanhamentoVendas(c *gin.Context) {
	blob, ok := h.currentBlob(c)
	if !ok {
		return
	}
	responses.Success(c, h.reports.AcompanhamentoVendas(blob), "Painel acompanhamento de vendas")
}
