package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/bookclub/internal/presentation/graph"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
)

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(flow.DefaultScript(), nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{"cover and terminal are circles", []string{`p0(("FORMULÁRIO"))`, `p9(("Obrigado!"))`}},
		{"text input shape", []string{`p1[/"1. Nome Completo"/]`}},
		{"choice shape", []string{`p6{"6. Disponibilidade e compromisso"}`}},
		{"forward edges", []string{"p0 --> p1", "p7 --> p8"}},
		{"submit edge", []string{`p8 -- "enviar" --> p9`}},
		{"retreat edges", []string{`p1 -. "voltar" .-> p0`, `p8 -. "voltar" .-> p7`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.NotContains(t, out, "p8 --> p9", "the terminal is reached only by submitting")
	assert.NotContains(t, out, "p9 -.", "the terminal has no way back")
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	state := &domain.FlowState{Step: 2, History: []int{0, 1, 2, 1, 2}}
	out := graph.GenerateMermaid(flow.DefaultScript(), graph.OverlayFrom(state))

	assert.Contains(t, out, "classDef visited")
	assert.Equal(t, 1, strings.Count(out, "class p1 visited;"))
	assert.Contains(t, out, "class p0 visited;")
	assert.Contains(t, out, "class p2 current;")
	assert.NotContains(t, out, "class p2 visited;")
}

func TestGenerateMermaid_EscapesQuotes(t *testing.T) {
	script := domain.Script{Steps: []domain.Step{
		{Kind: domain.StepCover, Title: `Clube "Livro"`},
		{Kind: domain.StepTerminal, Title: "Fim"},
	}}
	out := graph.GenerateMermaid(script, nil)
	assert.Contains(t, out, `p0(("Clube 'Livro'"))`)
}
