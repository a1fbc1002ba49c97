// Package configcmder provides the config command for managing persistent
// ssechat configuration stored in the .ssechat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ssechat/pkg/config"
)

const configLongDesc string = `Manage persistent ssechat configuration.

Configuration is stored as config.toml in the .ssechat/ directory and provides
default values for command flags. CLI flags and SSECHAT_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.endpoint,
  server.listen, server.token_delay,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  ssechat config set <key> <value>    Set a configuration value
  ssechat config get <key>            Get a configuration value
  ssechat config list                 List all configuration values

Examples:
  ssechat config set client.endpoint http://localhost:9000
  ssechat config set eventstream.brokers kafka-1:9092,kafka-2:9092
  ssechat config get server.token_delay
  ssechat config list`

const configShortDesc string = "Manage persistent ssechat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
