package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/teranos/gallery/am"
	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage gallery configuration",
	Long: `am: manage gallery configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/gallery/am.toml)
3. User config (~/.gallery/am.toml)
4. Project config (am.toml in the working directory or above)
5. Environment variables (GALLERY_* prefix)

Examples:
  gallery am show                       # Show current configuration
  gallery am show --format json         # Show configuration in JSON format
  gallery am get store.endpoint         # Get specific config value
  gallery am set gallery.edit_workers 8 # Persist a value in the user config
  gallery am where                      # Show where each value comes from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., store.endpoint, gallery.edit_workers)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long: `Persist a configuration value in the user config (~/.gallery/am.toml),
or in the file given with --file. The previous file is kept as a rotating
.back1 to .back3 backup.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
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
	amSetFile    string
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&amSetFile, "file", "", "Config file to modify (default ~/.gallery/am.toml)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case display.FormatJSON, display.FormatYAML:
		return display.Write(out, configFormat, cfg)
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		_, err = fmt.Fprintf(out, "# gallery configuration\n%s", data)
		return err
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.GetViper().IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return err
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := amSetFile
	if path == "" {
		path = filepath.Join(am.UserConfigDir(), "am.toml")
	}
	if err := am.SetValue(path, args[0], parseConfigValue(args[1])); err != nil {
		return err
	}
	am.Reset()
	cmd.Printf("%s = %s in %s\n", args[0], args[1], path)
	return nil
}

// parseConfigValue keeps numbers and booleans typed in the TOML file.
func parseConfigValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	cmd.Println("✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration files (later overrides earlier):")
	if len(intro.ConfigFiles) == 0 {
		fmt.Fprintln(out, "  (none, using defaults and environment)")
	}
	for _, f := range intro.ConfigFiles {
		fmt.Fprintf(out, "  %s\n", f)
	}
	fmt.Fprintln(out)

	t := display.Table{Header: []string{"key", "value", "source", "from"}}
	for _, s := range intro.Settings {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		t.Rows = append(t.Rows, []string{s.Key, value, string(s.Source), s.SourcePath})
	}
	return t.Render(out, display.FormatTable)
}
