package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
)

// PageMarkdown renders the current page of the view as markdown.
func PageMarkdown(v flow.View) string {
	var b strings.Builder
	step := v.Current

	fmt.Fprintf(&b, "_Página %d de %d_\n\n", v.Step+1, v.Total)

	switch step.Kind {
	case domain.StepCover, domain.StepTerminal:
		fmt.Fprintf(&b, "# %s\n\n", step.Title)
		for _, line := range step.Body {
			fmt.Fprintf(&b, "%s\n\n", line)
		}
	default:
		if step.Section != "" {
			fmt.Fprintf(&b, "**%s**\n\n", step.Section)
		}
		fmt.Fprintf(&b, "## %s\n\n", step.Label)
		if step.Kind == domain.StepChoice {
			for i, opt := range step.Options {
				mark := ""
				if opt == v.Value {
					mark = " ✓"
				}
				fmt.Fprintf(&b, "%d. %s%s\n", i+1, opt, mark)
			}
			b.WriteString("\n")
		} else if v.Value != "" {
			fmt.Fprintf(&b, "> %s\n\n", v.Value)
		} else if step.Placeholder != "" {
			fmt.Fprintf(&b, "_%s_\n\n", step.Placeholder)
		}
	}

	if v.Notice != "" {
		fmt.Fprintf(&b, "**%s**\n\n", v.Notice)
	}

	switch {
	case v.Busy:
		b.WriteString("Enviando...\n")
	case v.Submitted:
	case step.Kind == domain.StepCover:
		b.WriteString("Pressione Enter para começar.\n")
	case v.CanSubmit:
		b.WriteString("Digite sua resposta e pressione Enter para enviar. `voltar` retorna, `sair` encerra.\n")
	default:
		b.WriteString("Digite sua resposta e pressione Enter. `voltar` retorna, `sair` encerra.\n")
	}
	return b.String()
}
