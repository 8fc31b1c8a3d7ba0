package extractor

import (
	"strings"

	"github.com/schollz/closestmatch"

	"dashboard-service/internal/core/grid"
	"dashboard-service/internal/core/normalize"
)

// FindFirstEqual devolve a primeira linha cuja célula na coluna dada é igual
// ao token na forma Fold. A primeira ocorrência de cima para baixo vence.
func FindFirstEqual(g *grid.Grid, col int, token string) (int, bool) {
	return findToken(g, col, token, MatchEqual)
}

// FindFirstContains devolve a primeira linha cuja célula na coluna dada
// contém o token na forma Fold, tolerando sufixos como datas no título.
func FindFirstContains(g *grid.Grid, col int, token string) (int, bool) {
	return findToken(g, col, token, MatchContains)
}

func findToken(g *grid.Grid, col int, token string, mode MatchMode) (int, bool) {
	needle := normalize.Fold(token)
	if needle == "" {
		return -1, false
	}
	for r := 0; r < g.NumRows(); r++ {
		cell := normalize.Fold(g.Text(r, col))
		if cell == "" {
			continue
		}
		if mode == MatchEqual {
			if cell == needle {
				return r, true
			}
			continue
		}
		if strings.Contains(cell, needle) {
			return r, true
		}
	}
	return -1, false
}

// findAnchor tenta os tokens da seção na ordem configurada.
func (svc *service) findAnchor(g *grid.Grid, spec SectionSpec) (int, bool) {
	for _, token := range spec.Tokens {
		if r, ok := findToken(g, svc.cfg.LabelColumn, token, spec.Match); ok {
			return r, true
		}
	}
	return -1, false
}

// nearestLabel sugere o rótulo mais parecido com o token na coluna de
// rótulos. Serve apenas para diagnóstico em log; nunca altera a extração.
func (svc *service) nearestLabel(g *grid.Grid, token string) string {
	labels := make([]string, 0, g.NumRows())
	seen := make(map[string]bool)
	for r := 0; r < g.NumRows(); r++ {
		cell := normalize.Fold(g.Text(r, svc.cfg.LabelColumn))
		if cell == "" || seen[cell] {
			continue
		}
		seen[cell] = true
		labels = append(labels, cell)
	}
	if len(labels) == 0 {
		return ""
	}
	cm := closestmatch.New(labels, []int{3, 4, 5})
	return cm.Closest(normalize.Fold(token))
}

// matchesSection verifica se o rótulo casa com algum token da seção.
func matchesSection(label string, spec SectionSpec) bool {
	folded := normalize.Fold(label)
	if folded == "" {
		return false
	}
	for _, token := range spec.Tokens {
		needle := normalize.Fold(token)
		if needle == "" {
			continue
		}
		if spec.Match == MatchEqual {
			if folded == needle {
				return true
			}
			continue
		}
		if strings.Contains(folded, needle) {
			return true
		}
	}
	return false
}

// matchesOtherSection indica se o rótulo pertence a outra seção conhecida,
// o que encerra a coleta da seção corrente (seções nunca se sobrepõem).
func (svc *service) matchesOtherSection(label, currentKey string) bool {
	for _, spec := range svc.cfg.Sections {
		if spec.Key == currentKey {
			continue
		}
		if matchesSection(label, spec) {
			return true
		}
	}
	return false
}

// matchesAnySection indica se o rótulo casa com qualquer seção conhecida.
func (svc *service) matchesAnySection(label string) bool {
	for _, spec := range svc.cfg.Sections {
		if matchesSection(label, spec) {
			return true
		}
	}
	return false
}
