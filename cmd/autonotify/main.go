package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/autonotify/cmd/autonotify/templates"
	"github.com/delaneyj/autonotify/module"
	"github.com/delaneyj/autonotify/weaver"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	configKey  = "config"
	outKey     = "out"
	cleanKey   = "clean"
	workersKey = "workers"
)

func main() {
	cmd := &cli.Command{
		Name:  "autonotify",
		Usage: "Weave property change notifications into modules",
		Commands: []*cli.Command{
			{
				Name:      "weave",
				Usage:     "Instrument the setters of marked properties",
				ArgsUsage: "<module.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  configKey,
						Usage: "YAML file overriding contract, marker and helper names",
					},
					&cli.StringFlag{
						Name:  outKey,
						Usage: "Where to write the woven module, defaults to the input",
					},
					&cli.BoolFlag{
						Name:  cleanKey,
						Usage: "Strip marker attributes and the marker library reference",
						Value: true,
					},
					&cli.IntFlag{
						Name:  workersKey,
						Usage: "Types planned concurrently",
					},
				},
				Action: weave,
			},
			{
				Name:      "inspect",
				Usage:     "Print the dependency graph of every candidate type",
				ArgsUsage: "<module.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  configKey,
						Usage: "YAML file overriding contract, marker and helper names",
					},
				},
				Action: inspect,
			},
			{
				Name:      "list",
				Usage:     "Print the instruction listing of a module",
				ArgsUsage: "<module.yaml>",
				Action:    list,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadInput(cmd *cli.Command) (*module.Module, string, error) {
	in := cmd.Args().First()
	if in == "" {
		return nil, "", fmt.Errorf("%s: missing module path", cmd.Name)
	}
	m, err := module.LoadFile(in)
	if err != nil {
		return nil, "", err
	}
	return m, in, nil
}

func options(cmd *cli.Command) (weaver.Options, error) {
	opts := weaver.DefaultOptions()
	if path := cmd.String(configKey); path != "" {
		cfg, err := weaver.LoadConfigFile(path)
		if err != nil {
			return opts, err
		}
		opts = cfg.Apply(opts)
	}
	return opts, nil
}

func weave(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Weaving started !")
	defer func() {
		log.Printf("Weaving finished in %v", time.Since(start))
	}()

	m, in, err := loadInput(cmd)
	if err != nil {
		return err
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet(cleanKey) {
		opts.Clean = cmd.Bool(cleanKey)
	}
	if cmd.IsSet(workersKey) {
		opts.Workers = int(cmd.Int(workersKey))
	}
	opts.Logger = log.Default()

	report, err := weaver.Weave(m, opts)
	if err != nil {
		return err
	}

	out := cmd.String(outKey)
	if out == "" {
		out = in
	}
	if err := module.SaveFile(out, m); err != nil {
		return err
	}
	log.Printf("Wrote %s", out)

	renderReport(report)
	return nil
}

func renderReport(report *weaver.Report) {
	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("Woven %s", report.Module))
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"type", "helper", "setter", "notifies"})
	for _, tr := range report.Types {
		for _, sr := range tr.Setters {
			tbl.AppendRow(table.Row{tr.Type, tr.Helper, sr.Setter, strings.Join(sr.Notifies, ", ")})
		}
	}

	footer := fmt.Sprintf("%d setters", report.Instrumented())
	if report.RuntimeReference != "" {
		footer += ", runtime types from " + report.RuntimeReference
		if report.ReferenceAdded {
			footer += " (added)"
		}
	}
	if report.ReferenceCleaned {
		footer += ", marker reference removed"
	}
	tbl.AppendFooter(table.Row{"", "", "", footer})
	tbl.Render()
}

func inspect(ctx context.Context, cmd *cli.Command) error {
	m, _, err := loadInput(cmd)
	if err != nil {
		return err
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}

	scanned, err := weaver.Scan(m, opts)
	if err != nil {
		return err
	}

	var errs []error
	for _, st := range scanned {
		g, err := weaver.BuildGraph(st.Type, st.Marked)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		tbl := table.NewWriter()
		tbl.SetTitle(st.Type.Name)
		tbl.SetOutputMirror(os.Stdout)
		tbl.AppendHeader(table.Row{"source", "writable", "notifies"})
		for _, source := range g.Sources() {
			writable := st.Type.Property(source).Setter != nil
			tbl.AppendRow(table.Row{source, writable, strings.Join(g.Dependents(source), ", ")})
		}
		tbl.Render()
	}
	for _, err := range errs {
		log.Printf("%v", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d types have unresolved dependencies", len(errs))
	}
	return nil
}

func list(ctx context.Context, cmd *cli.Command) error {
	m, _, err := loadInput(cmd)
	if err != nil {
		return err
	}
	templates.WriteListing(os.Stdout, m)
	return nil
}
