package main

import (
	"github.com/spf13/cobra"

	"github.com/parsa-hm/lectern/config"
	srv "github.com/parsa-hm/lectern/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Run(cfg)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return serve
}
