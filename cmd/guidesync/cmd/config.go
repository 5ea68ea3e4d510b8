package cmd

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/guidesync/guidesync/internal/config"
	"github.com/guidesync/guidesync/pkg/bytesize"
	"github.com/guidesync/guidesync/pkg/duration"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing guidesync configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
Redirect the output to a file to create a configuration template:

  guidesync config dump > config.yaml

Configuration can be set via:
  - Config file (config.yaml, .guidesync.yaml, /etc/guidesync/config.yaml)
  - Environment variables (GUIDESYNC_SERVER_PORT, GUIDESYNC_DATABASE_DSN, ...)
  - Command-line flags (for some options)

Environment variables use the GUIDESYNC_ prefix and underscores for
nesting. Example: server.port -> GUIDESYNC_SERVER_PORT`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a config struct to a map, formatting durations and
// byte sizes for human readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Tag.Get("yaml")
		}
		if key == "" {
			key = fieldType.Name
		}

		switch v := field.Interface().(type) {
		case time.Duration:
			result[key] = duration.Format(v)
		case int64:
			if strings.Contains(key, "size") || strings.Contains(key, "bytes") {
				result[key] = bytesize.Format(bytesize.Size(v))
			} else {
				result[key] = v
			}
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# guidesync Configuration File")
	fmt.Println("# ============================")
	fmt.Println("#")
	fmt.Println("# All values shown below are defaults.")
	fmt.Println("# Duration format: 30s, 5m, 1h, 30d")
	fmt.Println("# Size format: 5MB, 1GB")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides:")
	fmt.Println("#   GUIDESYNC_SERVER_HOST, GUIDESYNC_SERVER_PORT")
	fmt.Println("#   GUIDESYNC_DATABASE_DRIVER, GUIDESYNC_DATABASE_DSN")
	fmt.Println("#")
	fmt.Print(string(yamlData))

	return nil
}
