package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/tasktalk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify tasktalk configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/tasktalk/config.yaml
Project-specific overrides can be placed in .tasktalk.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 2 {
			return setConfigKey(out, args[0], args[1])
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if len(args) == 1 {
			return displayConfigKey(out, cfg, args[0])
		}
		return displayAllConfig(out, cfg)
	},
}

// displayAllConfig prints the effective configuration with keys masked.
func displayAllConfig(out io.Writer, cfg *config.Config) error {
	tree, err := configTree(cfg)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n# user config: %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(out, "# project config: %s\n", p)
	}
	return nil
}

func displayConfigKey(out io.Writer, cfg *config.Config, key string) error {
	tree, err := configTree(cfg)
	if err != nil {
		return err
	}
	var node any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return fmt.Errorf("unknown config key %q", key)
		}
		if node, ok = m[part]; !ok {
			return fmt.Errorf("unknown config key %q", key)
		}
	}
	if _, nested := node.(map[string]any); nested {
		b, err := yaml.Marshal(node)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(b))
		return nil
	}
	fmt.Fprintf(out, "%s: %v\n", key, node)
	return nil
}

func setConfigKey(out io.Writer, key, raw string) error {
	if !slices.Contains(config.Keys(), key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := config.Save(key, parseValue(raw)); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if _, err := config.Load(); err != nil {
		fmt.Fprintf(out, "warning: saved, but the configuration no longer loads: %v\n", err)
		return nil
	}
	display := raw
	if strings.HasSuffix(key, "api_key") {
		display = config.MaskAPIKey(raw)
	}
	fmt.Fprintf(out, "Set %s = %s\n", key, display)
	return nil
}

// parseValue keeps numbers and booleans typed in the YAML file.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

// configTree renders cfg through its yaml tags into a generic map with API
// keys masked.
func configTree(cfg *config.Config) (map[string]any, error) {
	masked := *cfg
	masked.Anthropic.APIKey = config.MaskAPIKey(cfg.Anthropic.APIKey)
	masked.Gemini.APIKey = config.MaskAPIKey(cfg.Gemini.APIKey)
	masked.OpenAI.APIKey = config.MaskAPIKey(cfg.OpenAI.APIKey)

	b, err := yaml.Marshal(masked)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return tree, nil
}
