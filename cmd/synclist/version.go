package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/synclist"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of synclist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("synclist version %s\n", strings.TrimSpace(synclist.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
