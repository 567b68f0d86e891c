package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Show or change ogdviz configuration",
	Long: `am - Show or change ogdviz configuration ("as configured")

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/ogdviz/config.toml)
3. User config (~/.ogdviz/am.toml)
4. Project config (./am.toml, searched upward)
5. Environment variables (OGDVIZ_* prefix, plus OGD_API_URL and PORT)

Examples:
  ogdviz am show                          # Show the effective configuration
  ogdviz am show --format yaml
  ogdviz am set layout.charge_strength -800
  ogdviz am set api.base_url https://example.org/opengamedata/api --project
  ogdviz am where                         # List the files that were checked`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one configuration value",
	Long:  "Write a dotted key (e.g. layout.link_distance) to the user config, or to ./am.toml with --project.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var (
	configFormat string
	setProject   bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().BoolVar(&setProject, "project", false, "Write to the project am.toml instead of the user config")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Println(string(data))

	case "yaml":
		var doc map[string]interface{}
		if err := tomlToMap(cfg, &doc); err != nil {
			return err
		}
		data, err := yaml.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Printf("# ogdviz configuration\n%s", string(data))

	case "toml":
		data, err := am.Render(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("# ogdviz configuration\n%s", string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

// tomlToMap decodes the TOML rendering so YAML output uses the config key names.
func tomlToMap(cfg *am.Config, out *map[string]interface{}) error {
	data, err := am.Render(cfg)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "failed to decode rendered config")
	}
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := am.UserConfigPath()
	if setProject {
		path = am.FindProjectConfig()
		if path == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			path = wd + string(os.PathSeparator) + "am.toml"
		}
	}
	if path == "" {
		return errors.New("cannot determine config path")
	}

	if err := am.Set(path, args[0], args[1], nil); err != nil {
		return err
	}
	am.Reset()
	if _, err := am.Load(); err != nil {
		return errors.WithHint(errors.Wrap(err, "value written but the configuration no longer loads"),
			"backups are kept next to the file as .back1 .. .back3")
	}
	pterm.Success.Printfln("%s = %s (%s)", args[0], args[1], path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	data := pterm.TableData{{"File", "Status"}}
	for _, p := range am.ConfigPaths() {
		status := "missing"
		if _, err := os.Stat(p); err == nil {
			status = "loaded"
		}
		data = append(data, []string{p, status})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
