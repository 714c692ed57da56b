package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chatsim banner and the session mode to w.
func PrintBanner(w io.Writer, mode string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"        _           _       _           ", "#22d3ee"},
		{"   ___ | |__   __ _| |_ ___(_)_ __ ___  ", "#38bdf8"},
		{"  / __|| '_ \\ / _` | __/ __| | '_ ` _ \\ ", "#60a5fa"},
		{" | (__ | | | | (_| | |_\\__ \\ | | | | | |", "#818cf8"},
		{"  \\___||_| |_|\\__,_|\\__|___/_|_| |_| |_|", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  #onboarding · "+mode+" · /help for commands").Faint())
	fmt.Fprintln(w)
}
