package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := defaultConfig()
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "objdiff").
		WithSynopsis("objdiff [opts] a b").
		WithDescription(description).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return objdiffMain(cfg, cc, args)
		})
}

const description = `objdiff compares two JSON or YAML documents structurally.

Objects are compared key by key, lists with the algorithm given by -algo:

  positional     compare elements at equal indexes
  edit-distance  align the lists, reporting insertions, removals and moves
  as-set         compare the distinct elements, ignoring order

The differences are reported as a summary, one change per line, as a JSON
or YAML document, or as an RFC 6902 JSON patch. -where filters the changes
with an expression over kind, path, old, new, element, position,
oldPosition, oldRef and newRef, for example

  objdiff -where 'kind == "PropertyChange"' a.json b.json

objdiff exits with status 1 when the documents differ.`
