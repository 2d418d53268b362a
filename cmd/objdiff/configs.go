package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/signadot/objdiff"
	"github.com/signadot/objdiff/report"
)

type MainConfig struct {
	Algo    string `cli:"name=algo desc='default list algorithm: positional, edit-distance or as-set'"`
	Max     int    `cli:"name=max desc='maximum length of the differing part of a sequence compared by edit distance'"`
	Format  string `cli:"name=f aliases=format desc='output format: summary, json, yaml or patch'"`
	Where   string `cli:"name=where desc='only report changes for which this expression holds'"`
	Color   bool   `cli:"name=color desc='color the summary'"`
	Inline  bool   `cli:"name=s desc='show small string changes inline'"`
	Verbose bool   `cli:"name=v desc='log debug information'"`

	Main *cli.Command
}

func defaultConfig() *MainConfig {
	return &MainConfig{
		Algo:   "edit-distance",
		Max:    300,
		Format: "summary",
	}
}

const (
	summaryFormat = "summary"
	jsonFormat    = "json"
	yamlFormat    = "yaml"
	patchFormat   = "patch"
)

func (cfg *MainConfig) checkFormat() error {
	switch cfg.Format {
	case summaryFormat, jsonFormat, yamlFormat, patchFormat:
		return nil
	}
	return fmt.Errorf("%w: unknown format %q", cli.ErrUsage, cfg.Format)
}

func (cfg *MainConfig) differOpts(logw io.Writer) []objdiff.Option {
	return []objdiff.Option{
		objdiff.WithListAlgorithmName(cfg.Algo),
		objdiff.WithMaxEditDistanceLength(cfg.Max),
		objdiff.WithLogger(newLog(logw, cfg.Verbose)),
	}
}

// summaryOpts colors the summary when asked to, or when w is a terminal
// and -color was not given.
func (cfg *MainConfig) summaryOpts(w io.Writer) []report.Option {
	res := []report.Option{report.WithStringDiff(cfg.Inline)}
	if cfg.Color {
		return append(res, report.WithColor(true))
	}
	if cfg.Main != nil {
		for _, opt := range cfg.Main.Opts {
			if opt.Name == "color" && opt.Value != nil {
				return res
			}
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return res
	}
	if isatty.IsTerminal(f.Fd()) {
		res = append(res, report.WithColor(true))
	}
	return res
}
