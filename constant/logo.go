package constant

import (
	_ "embed"
	"strings"
)

//go:embed ascii.txt
var logo string

// Logo returns the banner shown in the root command help, without trailing blank lines.
func Logo() string {
	return strings.TrimRight(logo, "\n")
}
