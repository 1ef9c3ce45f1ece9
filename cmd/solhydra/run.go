package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ParadiseToken/solhydra/internal/application/pipeline"
	"github.com/ParadiseToken/solhydra/internal/domain/optional"
)

type runFlags struct {
	contracts string
	project   string
	repo      string
	npm       string
	ethpm     string
	tools     []string
	out       string
}

func (f runFlags) request() pipeline.Request {
	return pipeline.Request{
		ContractsDir: optional.FromString(f.contracts),
		ProjectDir:   optional.FromString(f.project),
		RepoURL:      optional.FromString(f.repo),
		NPMDir:       optional.FromString(f.npm),
		EthPMDir:     optional.FromString(f.ethpm),
		Tools:        f.tools,
		Destination:  f.out,
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyse contracts and write one HTML report",
		Example: `  solhydra run --contracts ./contracts --out report
  solhydra run --project ./my-truffle-app --tools solhint,mythril --out report.html
  solhydra run --repo https://github.com/org/project.git --out report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			a, err := build(cfg, opts.logger)
			if err != nil {
				return err
			}
			req := f.request()
			if _, err := a.svc.Plan(req); err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.attach(ctx, cfg, false); err != nil {
				return err
			}
			defer a.close()

			rec, err := a.svc.Generate(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report: %s (%d contracts, %d ms)\n", rec.ReportPath, rec.Contracts, rec.DurationMS)
			if rec.ReportURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "archived: %s\n", rec.ReportURL)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.contracts, "contracts", "", "directory of Solidity sources")
	fl.StringVar(&f.project, "project", "", "project directory laid out with contracts/, node_modules/, installed_contracts/")
	fl.StringVar(&f.repo, "repo", "", "git URL of a project to clone and analyse")
	fl.StringVar(&f.npm, "npm", "", "npm dependency directory (overrides the project's node_modules)")
	fl.StringVar(&f.ethpm, "ethpm", "", "ethpm dependency directory (overrides the project's installed_contracts)")
	fl.StringSliceVar(&f.tools, "tools", nil, "comma separated subset of tools to run (default all)")
	fl.StringVar(&f.out, "out", "", "destination file; .html is appended when there is no extension")
	return cmd
}
