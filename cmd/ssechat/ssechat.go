// Package ssechatcmder is the root of the ssechat command tree.
package ssechatcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/ssechat/cmd/ssechat/chat"
	configcmder "github.com/papercomputeco/ssechat/cmd/ssechat/config"
	servecmder "github.com/papercomputeco/ssechat/cmd/ssechat/serve"
	versioncmder "github.com/papercomputeco/ssechat/cmd/version"
)

const ssechatLongDesc string = `ssechat is a terminal chat client for streaming chat backends.

Replies arrive as server-sent events and are rendered as they stream in.

Commands:
  ssechat chat      Chat with the backend
  ssechat serve     Run the mock chat backend
  ssechat config    Manage persistent configuration`

const ssechatShortDesc string = "ssechat - streaming chat client"

func NewSSEChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ssechat",
		Short:        ssechatShortDesc,
		Long:         ssechatLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.ssechat or ~/.ssechat)")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
