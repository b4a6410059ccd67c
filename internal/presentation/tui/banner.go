package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct{ text, color string }{
	{`                                            _     _      `, "#818cf8"},
	{`  ___ ___  _ __ ___  _ __   ___  ___  __ _| |__ | | ___ `, "#a78bfa"},
	{` / __/ _ \| '_ ' _ \| '_ \ / _ \/ __|/ _' | '_ \| |/ _ \`, "#c084fc"},
	{`| (_| (_) | | | | | | |_) | (_) \__ \ (_| | |_) | |  __/`, "#e879f9"},
	{` \___\___/|_| |_| |_| .__/ \___/|___/\__,_|_.__/|_|\___|`, "#f472b6"},
	{`                    |_|                                 `, "#fb7185"},
}

// PrintBanner writes the ASCII art banner and the version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).Profile
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
