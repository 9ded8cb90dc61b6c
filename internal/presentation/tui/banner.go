package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the interactive wizard.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String(` __   __ _              _     `).Foreground(p.Color("#fb923c"))
	s2 := termenv.String(` \ \ / /(_)__   __ __ _| |__  `).Foreground(p.Color("#f97316"))
	s3 := termenv.String(`  \ V / | |\ \ / // _' | '_ \ `).Foreground(p.Color("#ea580c"))
	s4 := termenv.String(`   \_/  |_| \_'_/ \__,_|_| |_|`).Foreground(p.Color("#c2410c"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println()
}
