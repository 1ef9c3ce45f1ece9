package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ParadiseToken/solhydra/internal/config"
)

type rootOptions struct {
	configPath string
	logger     *log.Logger
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Resolve(o.configPath)
}

func buildRoot() *cobra.Command {
	opts := &rootOptions{logger: log.New(os.Stderr, "solhydra ", log.LstdFlags)}
	root := &cobra.Command{
		Use:           "solhydra",
		Short:         "Run Solidity analysers in parallel and aggregate their output into one report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (default $"+config.EnvPath+")")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newToolsCmd(opts))
	return root
}
