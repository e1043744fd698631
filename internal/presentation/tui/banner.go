package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ____ _       _       _     _                `, "#b45309"},
	{`  / ___| |_   _| |__   | |   (_)_   ___ __ ___  `, "#c2410c"},
	{` | |   | | | | | '_ \  | |   | \ \ / / '__/ _ \ `, "#be123c"},
	{` | |___| | |_| | |_) | | |___| |\ V /| | | (_) |`, "#9f1239"},
	{`  \____|_|\__,_|_.__/  |_____|_| \_/ |_|  \___/ `, "#7f1d1d"},
}

// PrintBanner writes the Club Livro banner in wine tones.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  Entre Letras e Vinhos").Italic())
	fmt.Fprintln(w)
}
