package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parsa-hm/lectern/config"
	srv "github.com/parsa-hm/lectern/internal/server"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var ingest = &cobra.Command{
		Use:   "ingest [folder]",
		Short: "Index course transcripts into the vector store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			folder := cfg.Corpus.Folder
			if len(args) == 1 {
				folder = args[0]
			}
			system, err := srv.BuildSystem(cfg)
			if err != nil {
				return err
			}
			courses, chunks, err := system.AddCourseFolder(context.Background(), folder)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d courses (%d chunks) from %s\n", courses, chunks, folder)
			return nil
		},
	}
	ingest.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return ingest
}
