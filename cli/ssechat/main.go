package main

import (
	"os"

	ssechatcmder "github.com/papercomputeco/ssechat/cmd/ssechat"
)

func main() {
	cmd := ssechatcmder.NewSSEChatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
