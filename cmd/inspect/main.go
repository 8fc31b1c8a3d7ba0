// cmd/inspect/main.go
//
// inspect roda o pipeline de extração fora do servidor: carrega uma planilha
// local ou remota, monta o blob e imprime o diagnóstico em JSON. Útil para
// conferir o que o dashboard vai enxergar antes de publicar a fonte.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dashboard-service/internal/core/extractor"
	"dashboard-service/internal/core/loader"
	"dashboard-service/internal/domain"
)

var (
	outputPath string
	pretty     bool
	full       bool
	verbose    bool
	timeoutSec int
	retries    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inspect [arquivo|URL]",
		Short: "Inspeciona o blob extraído de uma planilha do dashboard",
		Long: `inspect carrega uma planilha (CSV, XLS ou XLSX, local ou por URL),
roda o pipeline de extração e imprime um resumo JSON do resultado:
modo detectado, tabelas com amostras de linhas e KPIs encontrados.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Arquivo de saída (padrão: stdout)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "Indenta o JSON de saída")
	rootCmd.Flags().BoolVar(&full, "full", false, "Imprime o blob completo em vez do resumo")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Liga o log de desenvolvimento do pipeline")
	rootCmd.Flags().IntVar(&timeoutSec, "timeout", 30, "Timeout de rede em segundos")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "Novas tentativas em falhas transitórias de rede")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// inspectReport é a visão resumida impressa por padrão.
type inspectReport struct {
	Source    string                `json:"source"`
	Sheets    []string              `json:"sheets"`
	Mode      domain.Mode           `json:"mode"`
	HasKPIs   bool                  `json:"has_kpis"`
	Tables    []domain.TableSummary `json:"tables"`
	Metrics   domain.MetricsMap     `json:"metrics,omitempty"`
	ElapsedMS int64                 `json:"elapsed_ms"`
}

func run(cmd *cobra.Command, args []string) error {
	ref := args[0]

	src := loader.Source{
		FetchTimeout: time.Duration(timeoutSec) * time.Second,
		Retries:      retries,
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		src.CSVURL = ref
	} else {
		if _, err := os.Stat(ref); err != nil {
			return fmt.Errorf("arquivo não encontrado: %s", ref)
		}
		src.XLSXPath = ref
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	start := time.Now()
	sheets, err := loader.NewService(src, logger).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("falha ao carregar a fonte: %w", err)
	}
	blob := extractor.NewService(extractor.DefaultConfig(), logger).BuildBlob(sheets)

	var payload any
	if full {
		payload = blob
	} else {
		names := make([]string, 0, len(sheets))
		for _, sh := range sheets {
			names = append(names, sh.Name)
		}
		payload = inspectReport{
			Source:    ref,
			Sheets:    names,
			Mode:      blob.Mode,
			HasKPIs:   blob.HasMetrics(),
			Tables:    blob.Summaries(),
			Metrics:   blob.Metrics,
			ElapsedMS: time.Since(start).Milliseconds(),
		}
	}

	var data []byte
	if pretty {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return fmt.Errorf("falha ao serializar o diagnóstico: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("falha ao gravar a saída: %w", err)
		}
		return nil
	}
	fmt.Println(string(data))
	return nil
}
