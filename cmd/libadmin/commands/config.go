package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/libadmin/internal/constants"
)

// Configuration keys understood by the CLI.
const (
	keyAPI              = "api"
	keyOutput           = "output"
	keyPageSize         = "page_size"
	keyDebounce         = "debounce"
	keyRefreshThreshold = "refresh_threshold"
	keySessionFile      = "session_file"
	keyNATSURL          = "nats_url"
	keyTimeout          = "timeout"
	keyVerbose          = "verbose"
)

// Config represents the CLI configuration file.
type Config struct {
	API              string `json:"api,omitempty"               yaml:"api,omitempty"`
	Output           string `json:"output,omitempty"            yaml:"output,omitempty"`
	PageSize         int    `json:"page_size,omitempty"         yaml:"page_size,omitempty"`
	Debounce         string `json:"debounce,omitempty"          yaml:"debounce,omitempty"`
	RefreshThreshold string `json:"refresh_threshold,omitempty" yaml:"refresh_threshold,omitempty"`
	SessionFile      string `json:"session_file,omitempty"      yaml:"session_file,omitempty"`
	NATSURL          string `json:"nats_url,omitempty"          yaml:"nats_url,omitempty"`
	Timeout          string `json:"timeout,omitempty"           yaml:"timeout,omitempty"`
}

// SetConfigDefaults registers default values for every configuration key.
func SetConfigDefaults() {
	viper.SetDefault(keyOutput, constants.FormatTable)
	viper.SetDefault(keyPageSize, constants.DefaultPageSize)
	viper.SetDefault(keyDebounce, constants.DefaultDebounceWindow.String())
	viper.SetDefault(keyRefreshThreshold, constants.DefaultRefreshThreshold.String())
	viper.SetDefault(keyTimeout, constants.DefaultHTTPTimeout.String())
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the libadmin configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			renderer := OutputRenderer[*Config]{
				RenderJSON:  StandardJSONRenderer[*Config],
				RenderYAML:  StandardYAMLRenderer[*Config],
				RenderTable: displayConfigTable,
			}

			return renderer.Render(cmd.OutOrStdout(), config, viper.GetString(keyOutput))
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Known keys:

  api, output, page_size, debounce, refresh_threshold, session_file, nats_url, timeout`,
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value so that its default applies again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := unsetConfigValue(config, args[0])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func loadConfig() *Config {
	return &Config{
		API:              viper.GetString(keyAPI),
		Output:           viper.GetString(keyOutput),
		PageSize:         viper.GetInt(keyPageSize),
		Debounce:         viper.GetString(keyDebounce),
		RefreshThreshold: viper.GetString(keyRefreshThreshold),
		SessionFile:      viper.GetString(keySessionFile),
		NATSURL:          viper.GetString(keyNATSURL),
		Timeout:          viper.GetString(keyTimeout),
	}
}

// setConfigValue validates value and stores it under key.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case keyAPI:
		config.API = value
	case keyOutput:
		err := validateOutputFormat(value)
		if err != nil {
			return err
		}

		config.Output = value
	case keyPageSize:
		size, err := strconv.Atoi(value)
		if err != nil || size <= 0 || size > constants.MaxPageSize {
			return fmt.Errorf("%w: page_size must be between 1 and %d", constants.ErrInvalidConfigValue, constants.MaxPageSize)
		}

		config.PageSize = size
	case keyDebounce, keyRefreshThreshold, keyTimeout:
		_, err := parsePositiveDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", constants.ErrInvalidConfigValue, key, err)
		}

		setDurationField(config, key, value)
	case keySessionFile:
		config.SessionFile = value
	case keyNATSURL:
		config.NATSURL = value
	case "token", "username", "session":
		return constants.ErrSessionFieldsUnset
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case keyAPI:
		config.API = ""
	case keyOutput:
		config.Output = ""
	case keyPageSize:
		config.PageSize = 0
	case keyDebounce, keyRefreshThreshold, keyTimeout:
		setDurationField(config, key, "")
	case keySessionFile:
		config.SessionFile = ""
	case keyNATSURL:
		config.NATSURL = ""
	case "token", "username", "session":
		return constants.ErrSessionFieldsUnset
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func setDurationField(config *Config, key, value string) {
	switch key {
	case keyDebounce:
		config.Debounce = value
	case keyRefreshThreshold:
		config.RefreshThreshold = value
	case keyTimeout:
		config.Timeout = value
	}
}

func parsePositiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", value, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", constants.ErrInvalidConfigValue, value)
	}

	return d, nil
}

func validateOutputFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

// configFilePath returns the file config set/unset write to.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName+".yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Reload so later reads in this process see the new values.
	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	return nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	rows := map[string]string{
		keyAPI:              config.API,
		keyOutput:           config.Output,
		keyPageSize:         strconv.Itoa(config.PageSize),
		keyDebounce:         config.Debounce,
		keyRefreshThreshold: config.RefreshThreshold,
		keySessionFile:      config.SessionFile,
		keyNATSURL:          config.NATSURL,
		keyTimeout:          config.Timeout,
	}

	keys := make([]string, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Key", "Value")

	for _, key := range keys {
		value := rows[key]
		if value == "" {
			value = constants.NotAvailable
		}

		_ = table.Append(key, value)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
