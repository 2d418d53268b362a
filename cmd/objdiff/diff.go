package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"

	"github.com/signadot/objdiff"
	"github.com/signadot/objdiff/report"
)

func objdiffMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: objdiff requires 2 args, got %v", cli.ErrUsage, args)
	}
	differs, err := diffFiles(cfg, cc.Out, os.Stderr, args[0], args[1])
	if errors.Is(err, cli.ErrUsage) {
		cfg.Main.Usage(cc, err)
		return cli.ExitCodeErr(2)
	}
	if err != nil {
		return err
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// diffFiles compares the documents in files a and b, writing the result to
// w. It reports whether any change was written.
func diffFiles(cfg *MainConfig, w, logw io.Writer, a, b string) (bool, error) {
	if err := cfg.checkFormat(); err != nil {
		return false, err
	}
	d, err := objdiff.New(cfg.differOpts(logw)...)
	if err != nil {
		return false, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	old, err := readDoc(a)
	if err != nil {
		return false, fmt.Errorf("error decoding %s: %w", a, err)
	}
	new, err := readDoc(b)
	if err != nil {
		return false, fmt.Errorf("error decoding %s: %w", b, err)
	}
	cs, err := d.Compare(old, new)
	if err != nil {
		return false, err
	}
	if cfg.Where != "" {
		cs, err = report.Where(cs, cfg.Where)
		if err != nil {
			return false, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
	}
	if !cs.HasChanges() {
		return false, nil
	}
	var out []byte
	switch cfg.Format {
	case summaryFormat:
		out = []byte(report.Summary(cs, cfg.summaryOpts(w)...) + "\n")
	case jsonFormat:
		out, err = report.MarshalJSON(cs)
		out = append(out, '\n')
	case yamlFormat:
		out, err = report.MarshalYAML(cs)
	case patchFormat:
		out, err = report.JSONPatch(cs)
		out = append(out, '\n')
	}
	if err != nil {
		return false, err
	}
	if _, err := w.Write(out); err != nil {
		return false, fmt.Errorf("unable to write result: %w", err)
	}
	return true, nil
}

// readDoc decodes a JSON or YAML document; "-" reads standard input.
func readDoc(path string) (any, error) {
	var (
		d   []byte
		err error
	)
	if path == "-" {
		d, err = io.ReadAll(os.Stdin)
	} else {
		d, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var v any
	if err := yaml.Unmarshal(d, &v); err != nil {
		return nil, err
	}
	return v, nil
}
