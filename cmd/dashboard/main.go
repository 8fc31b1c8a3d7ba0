// cmd/dashboard/main.go
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"dashboard-service/internal/api/handlers"
	"dashboard-service/internal/api/responses"
	"dashboard-service/internal/core/cache"
	"dashboard-service/internal/core/extractor"
	"dashboard-service/internal/core/loader"
	"dashboard-service/internal/core/report"
	"dashboard-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// --- Helper Functions ---

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Valor inválido para %s (%q), usando %d", key, value, fallback)
		return fallback
	}
	return n
}

// --- Main Service Runner ---
func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("Arquivo .env não encontrado, prosseguindo com variáveis de ambiente")
	}

	csvURL := os.Getenv("GOOGLE_SHEET_CSV_URL")
	xlsxPath := os.Getenv("DATA_XLSX_PATH")
	xlsxURL := os.Getenv("DATA_XLSX_URL")
	if csvURL == "" && xlsxPath == "" && xlsxURL == "" {
		log.Fatal("FATAL: configure GOOGLE_SHEET_CSV_URL, DATA_XLSX_PATH ou DATA_XLSX_URL.")
	}

	responses.InitLogger()
	logger := responses.Logger()

	src := loader.Source{
		CSVURL:       csvURL,
		XLSXPath:     xlsxPath,
		XLSXURL:      xlsxURL,
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		Retries:      getEnvInt("FETCH_RETRIES", 3),
	}
	loaderService := loader.NewService(src, logger)
	extractorService := extractor.NewService(extractor.DefaultConfig(), logger)

	ttl := time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second
	store := cache.NewStore(func(ctx context.Context) (domain.DataBlob, error) {
		sheets, err := loaderService.Load(ctx)
		if err != nil {
			return domain.DataBlob{}, err
		}
		return extractorService.BuildBlob(sheets), nil
	}, ttl, logger)

	// Carga na subida. Falha não derruba o serviço: o cache tenta de novo a
	// cada requisição até a fonte responder.
	if _, err := store.Get(context.Background()); err != nil {
		log.Printf("Carga inicial falhou: %v", err)
	}

	reportService := report.NewService(logger)
	dashboardHandler := handlers.NewDashboardHandler(store, reportService)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/status", dashboardHandler.HandleStatus)
		apiV1.GET("/blob", dashboardHandler.HandleBlob)
		apiV1.POST("/reload", dashboardHandler.HandleReload)

		paineis := apiV1.Group("/paineis")
		{
			paineis.GET("/resumo", dashboardHandler.HandleResumo)
			paineis.GET("/visao-geral", dashboardHandler.HandleVisaoGeral)
			paineis.GET("/origem-conversao", dashboardHandler.HandleOrigemConversao)
			paineis.GET("/profissao-por-canal", dashboardHandler.HandleProfissaoPorCanal)
			paineis.GET("/analise-regional", dashboardHandler.HandleAnaliseRegional)
			paineis.GET("/projecao-resultados", dashboardHandler.HandleProjecaoResultados)
			paineis.GET("/acompanhamento-vendas", dashboardHandler.HandleAcompanhamentoVendas)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "dashboard-service"})
	})

	port := getEnv("PORT", "10000")
	log.Printf("🚀 Dashboard Service (Go) iniciado e escutando na porta %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Falha ao iniciar o servidor do dashboard: ", err)
	}
}
