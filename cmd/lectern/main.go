package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "lectern"}

	root.AddCommand(serveCMD(), ingestCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
