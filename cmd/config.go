package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/config"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/style"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func errUnknownKey(key string) error {
	closest := lo.MinBy(lo.Keys(config.Default), func(a string, b string) bool {
		return levenshtein.Distance(key, a) < levenshtein.Distance(key, b)
	})

	return fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(key),
		style.Fg(color.Yellow)(closest),
	)
}

func errUnknownSection(name string) error {
	names := lo.Map(config.Sections, func(s config.Section, _ int) string { return s.Name })
	return fmt.Errorf("unknown section %s, expected one of %v", style.Fg(color.Red)(name), names)
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func completionConfigSections(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(config.Sections, func(s config.Section, _ int) string { return s.Name }), cobra.ShellCompDirectiveNoFileComp
}

// selectedSections resolves the --section flag, all sections when unset.
func selectedSections(cmd *cobra.Command) []config.Section {
	names := lo.Must(cmd.Flags().GetStringSlice("section"))
	if len(names) == 0 {
		return config.Sections
	}

	for _, name := range names {
		if !config.IsSection(name) {
			handleErr(errUnknownSection(name))
		}
	}
	return lo.Filter(config.Sections, func(s config.Section, _ int) bool { return lo.Contains(names, s.Name) })
}

func mustKnowKey(key string) {
	if _, ok := config.Default[key]; !ok {
		handleErr(errUnknownKey(key))
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configCmd groups the harvest settings: page range, readiness budgets, retries, output and the engine.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change harvest settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("section", "s", nil, "Only show these sections")
	configInfoCmd.Flags().StringSliceP("key", "k", nil, "Only show these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "Output as json")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
	_ = configInfoCmd.RegisterFlagCompletionFunc("section", completionConfigSections)

	configInfoCmd.SetOut(os.Stdout)
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings, grouped by section",
	Run: func(cmd *cobra.Command, args []string) {
		keys := lo.Must(cmd.Flags().GetStringSlice("key"))
		for _, key := range keys {
			mustKnowKey(key)
		}

		type group struct {
			config.Section
			Fields []config.Field
		}

		var groups []group
		for _, section := range selectedSections(cmd) {
			fields := config.Fields(section.Name)
			if len(keys) > 0 {
				fields = lo.Filter(fields, func(f config.Field, _ int) bool { return lo.Contains(keys, f.Key) })
			}
			if len(fields) > 0 {
				groups = append(groups, group{Section: section, Fields: fields})
			}
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			out := make(map[string][]config.Field, len(groups))
			for _, g := range groups {
				out[g.Name] = g.Fields
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(out))
			return
		}

		for i, g := range groups {
			if i > 0 {
				cmd.Println()
			}
			cmd.Println(style.New().Bold(true).Foreground(color.Purple).Render(g.Title))
			cmd.Println()
			for _, field := range g.Fields {
				cmd.Println(field.Pretty())
				cmd.Println()
			}
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.Flags().StringSliceP("section", "s", nil, "Print every value of these sections")
	_ = configGetCmd.RegisterFlagCompletionFunc("section", completionConfigSections)
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the current value of a key or of whole sections",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			mustKnowKey(args[0])
			fmt.Println(viper.Get(args[0]))
			return
		}

		if !cmd.Flags().Changed("section") {
			handleErr(errors.New("a key argument or --section is required"))
		}

		for _, section := range selectedSections(cmd) {
			for _, field := range config.Fields(section.Name) {
				fmt.Printf("%s = %v\n", style.Fg(color.Purple)(field.Key), viper.Get(field.Key))
			}
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>...",
	Short: "Change a setting and save it",
	Long: `Change a setting and save it.
The value is checked against the key's type and allowed options, and the
whole configuration is validated before anything is written.
List keys take several values or a comma separated one.`,
	Example:           "  cardsweep config set retry.max_attempts 5\n  cardsweep config set browser.block_resources images,fonts",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		mustKnowKey(key)

		v, err := config.Set(key, args[1:])
		handleErr(err)
		handleErr(config.Save())

		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(key),
			style.Fg(color.Yellow)(fmt.Sprintf("%v", v)),
		)
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)

	configResetCmd.Flags().StringSliceP("key", "k", nil, "Keys to restore")
	configResetCmd.Flags().StringSliceP("section", "s", nil, "Sections to restore")
	configResetCmd.Flags().BoolP("all", "a", false, "Restore every setting")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "section", "all")
	configResetCmd.MarkFlagsOneRequired("key", "section", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
	_ = configResetCmd.RegisterFlagCompletionFunc("section", completionConfigSections)
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore settings to their defaults",
	Run: func(cmd *cobra.Command, args []string) {
		var keys []string

		switch {
		case lo.Must(cmd.Flags().GetBool("all")):
			keys = lo.Keys(config.Default)
		case cmd.Flags().Changed("section"):
			for _, section := range selectedSections(cmd) {
				keys = append(keys, lo.Map(config.Fields(section.Name), func(f config.Field, _ int) string { return f.Key })...)
			}
		default:
			keys = lo.Must(cmd.Flags().GetStringSlice("key"))
			for _, key := range keys {
				mustKnowKey(key)
			}
		}

		config.Reset(keys...)
		handleErr(config.Save())

		fmt.Printf(
			"%s reset %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Yellow)(fmt.Sprintf("%d keys", len(keys))),
		)
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current settings to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.Path()

		if lo.Must(cmd.Flags().GetBool("force")) {
			if err := filesystem.API().Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				handleErr(err)
			}
		}

		handleErr(viper.SafeWriteConfig())
		fmt.Printf("%s wrote config to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Remove the config file, returning to defaults",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(config.Path()))
		fmt.Printf("%s deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), config.Path())
	},
}
