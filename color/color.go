// Package color provides a curated palette of colors.
package color

import "github.com/charmbracelet/lipgloss"

// New initializes a lipgloss.Color from a string value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Standard ANSI 8-color palette.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
	White  = New("7")
)

// High-intensity ANSI 16-color palette extension.
var (
	HiRed    = New("9")
	HiGreen  = New("10")
	HiYellow = New("11")
	HiPurple = New("13")
	HiCyan   = New("14")
)

// Hex-defined accent and semantic colors.
var (
	Orange = New("#ffb703")
	Gray   = New("#808080")
)

// Tier maps a card tier label to its display color. Unknown tiers render gray.
func Tier(tier string) lipgloss.Color {
	switch tier {
	case "1":
		return White
	case "2":
		return Green
	case "3":
		return Blue
	case "4":
		return Purple
	case "5":
		return Orange
	case "6":
		return HiRed
	case "S":
		return HiYellow
	default:
		return Gray
	}
}
