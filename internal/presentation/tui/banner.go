package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`      _             __ _               `, "#818cf8"},
	{`  ___| |_ ___ _ __ / _| | _____      __`, "#a78bfa"},
	{` / __| __/ _ \ '_ \ |_| |/ _ \ \ /\ / /`, "#c084fc"},
	{` \__ \ ||  __/ |_) |  _| | (_) \ V  V / `, "#e879f9"},
	{` |___/\__\___| .__/|_| |_|\___/ \_/\_/  `, "#f472b6"},
	{`             |_|                        `, "#fb7185"},
}

// PrintBanner writes the ASCII art banner and the version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
