package flow

import (
	"fmt"
	"os"

	"github.com/aretw0/bookclub/pkg/domain"
	"gopkg.in/yaml.v3"
)

// SubmitFailureNotice is shown when the submission collaborator rejects a record.
const SubmitFailureNotice = "Erro ao enviar. Tente novamente."

// DefaultScript returns the book club signup: a cover, eight questions and a
// thank-you page.
func DefaultScript() domain.Script {
	return domain.Script{
		Title: "Club Livro",
		Steps: []domain.Step{
			{
				Kind:  domain.StepCover,
				Title: "FORMULÁRIO",
				Body: []string{
					"INSCRIÇÃO",
					"CLUB LIVRO",
				},
			},
			{
				Kind:        domain.StepText,
				Section:     "Dados Básicos",
				Label:       "1. Nome Completo",
				Field:       domain.FieldFullName,
				Placeholder: "Seu nome aqui",
				InputType:   "text",
			},
			{
				Kind:        domain.StepText,
				Section:     "Dados Básicos",
				Label:       "2. Idade",
				Field:       domain.FieldAge,
				Placeholder: "Sua idade",
				InputType:   "number",
			},
			{
				Kind:        domain.StepText,
				Section:     "Dados Básicos",
				Label:       "3. WhatsApp",
				Field:       domain.FieldPhone,
				Placeholder: "(XX) XXXXX-XXXX",
				InputType:   "tel",
			},
			{
				Kind:        domain.StepFreeText,
				Section:     "Perfil",
				Label:       "4. O que te motivou a entrar?",
				Field:       domain.FieldMotivation,
				Placeholder: "Escreva aqui...",
			},
			{
				Kind:    domain.StepChoice,
				Section: "Perfil",
				Label:   "5. Sua relação com leitura",
				Field:   domain.FieldReadingRelation,
				Options: []string{
					"Leio e busco me desenvolver com constância",
					"Leio às vezes, mas quero aprofundar",
					"Estou retomando agora",
					"Ainda não tenho hábito, mas tenho interesse real",
				},
			},
			{
				Kind:    domain.StepChoice,
				Section: "Perfil",
				Label:   "6. Disponibilidade e compromisso",
				Field:   domain.FieldAvailability,
				Options: []string{"Alto", "Médio", "Baixo"},
			},
			{
				Kind:    domain.StepChoice,
				Section: "Convivência",
				Label:   "7. Em grupo, você costuma:",
				Field:   domain.FieldGroupBehavior,
				Options: []string{
					"Ouvir, refletir e contribuir quando faz sentido",
					"Falar bastante e compartilhar experiências",
					"Observar mais do que falar",
				},
			},
			{
				Kind:        domain.StepFreeText,
				Section:     "Final",
				Label:       "8. Porque você deveria ocupar uma das 3 vagas do clube?",
				Field:       domain.FieldWhyMatch,
				Placeholder: "Escreva aqui...",
			},
			{
				Kind:  domain.StepTerminal,
				Title: "Obrigado!",
				Body: []string{
					"Sua inscrição foi recebida.",
					"Entraremos em contato em breve.",
				},
			},
		},
	}
}

// LoadScript reads a YAML script file and validates it.
func LoadScript(path string) (domain.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script and validates it.
func ParseScript(data []byte) (domain.Script, error) {
	var script domain.Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return domain.Script{}, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return domain.Script{}, err
	}
	return script, nil
}
