package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config       string
	ConfigActual string
	Debug        bool

	// Command to run to retrieve the Dooray personal API token
	AuthTokenCmd []string

	LocalStore string
	BaseURL    string
	Domain     string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "dooray-dump",
	Short: "Back up Dooray project wikis to local Markdown trees",
	Long: `
Dooray's wiki export story is "click around and hope".  This tool walks a project wiki's page tree
over the REST API and snapshots every page, with its inline images and attachments, into a numbered
local directory tree of Markdown and metadata.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// You can bind cobra and viper in a few locations, but PersistentPreRunE on the root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("dooray-dump: failed to initialise config: %w", err)
		}

		if len(AuthTokenCmd) < 1 {
			return fmt.Errorf("dooray-dump: please provide --auth-token-cmd")
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/dooray-dump.yaml, respects DOORAY_DUMP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringSliceVar(&AuthTokenCmd, "auth-token-cmd", []string{}, "shell command to retrieve Dooray API token")
	rootCmd.PersistentFlags().StringVar(&LocalStore, "store", "", "location to save wiki backups")
	rootCmd.PersistentFlags().StringVar(&BaseURL, "base-url", "https://api.dooray.com", "Dooray API base URL")
	rootCmd.PersistentFlags().StringVar(&Domain, "domain", "", "your Dooray web domain, e.g. https://ORG.dooray.com")
}

func initializeConfig(cmd *cobra.Command) error {
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("DOORAY_DUMP_CONFIG")
		if envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/dooray-dump.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("dooray-dump: unable to expand homedir: %w", err)
	}
	ConfigActual = config

	// Use config file from the flag.
	if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Couldn't read config file %s, does it exist?  Override with --config.\n", ConfigActual)
		return fmt.Errorf("dooray-dump: specified config file does not exist: %w", err)
	}

	yamlFile, err := os.ReadFile(ConfigActual)
	if err != nil {
		return fmt.Errorf("dooray-dump: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a flag we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("dooray-dump: issue parsing config file: %w", err)
	}

	// Bind the current command's flags to the parsed config
	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("dooray-dump: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	KeepGoing *bool `yaml:"keep-going"`
	WithVCR   *bool `yaml:"with-vcr"`
	All       *bool `yaml:"all"`

	PageLimit *int `yaml:"page-limit"`

	StorePath    string   `yaml:"store"`
	BaseURL      string   `yaml:"base-url"`
	Domain       string   `yaml:"domain"`
	AuthTokenCmd []string `yaml:"auth-token-cmd"`
	Projects     []string `yaml:"projects"`
}

// Bind each cobra flag to its associated config file entry
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("dooray-dump: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if you're running
			// e.g. `list projects` which has no `page-limit` flag but your YAML file does
			// define that flag...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// err, this is crappy, but i know YamlConfig only uses pointers for bools and ints.....
				switch val := field.Value().(type) {
				case *bool:
					if val != nil {
						cmd.Flags().Set(key, fmt.Sprintf("%v", *val))
					}
				case *int:
					if val != nil {
						cmd.Flags().Set(key, fmt.Sprintf("%d", *val))
					}
				default:
					return fmt.Errorf("dooray-dump: found unrecognised field: %+v", field)
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("dooray-dump: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			case reflect.Slice:
				ss, ok := field.Value().([]string)
				if !ok {
					return fmt.Errorf("dooray-dump: found unrecognised field: %+v", field)
				}
				for _, s := range ss {
					// yes, repeatedly calling Set() appends to the slice...
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("dooray-dump: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Flags are only available after (or inside, presumably) the .Execute() thing.
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("dooray-dump: execution error: %w", err)
	}

	return nil
}
