package cmd

import (
	"fmt"
	"runtime"

	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/viper"
)

// CheckDependencies looks for a local Chrome when the rod engine has to launch one.
// A missing browser is not fatal: rod downloads a pinned Chromium on first launch.
func CheckDependencies() {
	if viper.GetString(key.BrowserRemoteURL) != "" {
		return
	}

	if _, found := launcher.LookPath(); !found {
		printMissingBrowserWarning()
	}
}

func printMissingBrowserWarning() {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install --cask google-chrome"
	case "linux":
		installCmd = "sudo apt install chromium"
	case "windows":
		installCmd = "scoop install chromium"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.Yellow).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.Yellow).Render(fmt.Sprintf("%s No local Chrome found", icon.Get(icon.Warn)))
	body := "A pinned Chromium build will be downloaded before the first page is opened."

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo use a system browser instead, try running:\n  %s", style.New().Foreground(color.HiCyan).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
