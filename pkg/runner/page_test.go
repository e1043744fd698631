package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/bookclub/pkg/flow"
)

func viewAt(step int) flow.View {
	script := flow.DefaultScript()
	last := script.LastQuestion()
	return flow.View{
		Step:       step,
		Total:      script.Len(),
		Current:    script.Steps[step],
		CanAdvance: step < last,
		CanRetreat: step > 0 && step < script.Terminal(),
		CanSubmit:  step == last,
	}
}

func TestPageMarkdown(t *testing.T) {
	t.Run("cover", func(t *testing.T) {
		md := PageMarkdown(viewAt(0))
		assert.Contains(t, md, "_Página 1 de 10_")
		assert.Contains(t, md, "# FORMULÁRIO")
		assert.Contains(t, md, "CLUB LIVRO")
		assert.Contains(t, md, "Pressione Enter para começar.")
	})

	t.Run("text with placeholder", func(t *testing.T) {
		md := PageMarkdown(viewAt(1))
		assert.Contains(t, md, "**Dados Básicos**")
		assert.Contains(t, md, "## 1. Nome Completo")
		assert.Contains(t, md, "_Seu nome aqui_")
	})

	t.Run("text with value", func(t *testing.T) {
		v := viewAt(1)
		v.Value = "Ana"
		md := PageMarkdown(v)
		assert.Contains(t, md, "> Ana")
		assert.NotContains(t, md, "Seu nome aqui")
	})

	t.Run("choice marks selection", func(t *testing.T) {
		v := viewAt(6)
		v.Value = "Médio"
		md := PageMarkdown(v)
		assert.Contains(t, md, "1. Alto\n")
		assert.Contains(t, md, "2. Médio ✓\n")
	})

	t.Run("last question with notice", func(t *testing.T) {
		v := viewAt(8)
		v.Notice = flow.SubmitFailureNotice
		md := PageMarkdown(v)
		assert.Contains(t, md, "**Erro ao enviar. Tente novamente.**")
		assert.Contains(t, md, "para enviar")
	})

	t.Run("busy", func(t *testing.T) {
		v := viewAt(8)
		v.Busy = true
		assert.Contains(t, PageMarkdown(v), "Enviando...")
	})

	t.Run("terminal", func(t *testing.T) {
		v := viewAt(9)
		v.Submitted = true
		md := PageMarkdown(v)
		assert.Contains(t, md, "# Obrigado!")
		assert.NotContains(t, md, "Digite")
	})
}
