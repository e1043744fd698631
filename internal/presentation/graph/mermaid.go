// Package graph draws a step script as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/bookclub/pkg/domain"
)

// GraphOverlay contains session progress to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []int
	CurrentStep  int
}

// OverlayFrom builds the overlay of a persisted flow state.
func OverlayFrom(state *domain.FlowState) *GraphOverlay {
	return &GraphOverlay{VisitedSteps: state.History, CurrentStep: state.Step}
}

// GenerateMermaid produces a Mermaid flowchart of the script.
// It applies semantic styling:
// - Cover and terminal: ((Circle))
// - Text input: [/Parallelogram/]
// - Choice: {Rhombus}
// Forward edges are solid, the submit edge is labelled and retreat edges are dotted.
func GenerateMermaid(script domain.Script, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	last := script.LastQuestion()
	for i, step := range script.Steps {
		opener, closer := "[", "]"
		switch step.Kind {
		case domain.StepCover, domain.StepTerminal:
			opener, closer = "((", "))"
		case domain.StepText, domain.StepFreeText:
			opener, closer = "[/", "/]"
		case domain.StepChoice:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(i), opener, escape(label(step)), closer)
	}

	for i := range script.Steps {
		switch {
		case i < last:
			fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(i), nodeID(i+1))
		case i == last:
			fmt.Fprintf(&sb, "    %s -- \"enviar\" --> %s\n", nodeID(i), nodeID(i+1))
		}
		if i > 0 && i <= last {
			fmt.Fprintf(&sb, "    %s -. \"voltar\" .-> %s\n", nodeID(i), nodeID(i-1))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#fde68a,stroke:#92400e,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#fca5a5,stroke:#7f1d1d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, step := range overlay.VisitedSteps {
			if seen[step] || step < 0 || step >= script.Len() || step == overlay.CurrentStep {
				continue
			}
			seen[step] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(step))
		}
		if overlay.CurrentStep >= 0 && overlay.CurrentStep < script.Len() {
			fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func nodeID(step int) string {
	return fmt.Sprintf("p%d", step)
}

func label(step domain.Step) string {
	if step.Label != "" {
		return step.Label
	}
	return step.Title
}

// escape replaces the characters Mermaid reads as syntax inside a quoted label.
func escape(s string) string {
	return strings.NewReplacer(`"`, "'", "\n", " ").Replace(s)
}
