package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"      _        _                       __ _   ",
	"  ___| |_ __ _| |_ ___  ___ _ __ __ _ / _| |_ ",
	" / __| __/ _` | __/ _ \\/ __| '__/ _` | |_| __|",
	" \\__ \\ || (_| | ||  __/ (__| | | (_| |  _| |_ ",
	" |___/\\__\\__,_|\\__\\___|\\___|_|  \\__,_|_|  \\__|",
}

// Teal to indigo, one shade per line.
var bannerColors = []string{"#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8"}

// PrintBanner writes the statecraft ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
