/*
Package runner drives the signup book from a terminal or a JSON-lines pipe.

The Runner owns the read-apply-render loop; an IOHandler decides how a page is
shown and how a line is read. TextHandler renders each page as markdown
(optionally through a ContentRenderer such as glamour) and JSONHandler emits
the flow.View as one JSON object per line for scripted clients.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("terminal-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	view, err := r.Run(ctx, flows)

Answers typed at the prompt go through SanitizeInput before reaching the flow.
"voltar" turns back one page and "sair" leaves with the session kept for resuming.
*/
package runner
