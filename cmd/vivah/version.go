package main

import (
	"fmt"
	"strings"

	"github.com/sangamhq/vivah"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vivah",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vivah version %s\n", strings.TrimSpace(vivah.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
