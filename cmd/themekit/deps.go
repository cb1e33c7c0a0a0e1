package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/themekit/internal/app/compile"
	"github.com/alexisbeaulieu97/themekit/internal/graph"
	"github.com/alexisbeaulieu97/themekit/internal/registry"
)

type depsOptions struct {
	jsonOutput bool
}

func newDepsCmd(root *rootFlags) *cobra.Command {
	opts := &depsOptions{}

	cmd := &cobra.Command{
		Use:   "deps <dir>",
		Short: "Print the extends graph and build order of a theme directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the graph as JSON")

	return cmd
}

type depsEdge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Missing bool   `json:"missing,omitempty"`
}

type depsPayload struct {
	Waves  [][]string `json:"waves,omitempty"`
	Cycles []string   `json:"cycles,omitempty"`
	Edges  []depsEdge `json:"edges"`
}

func runDeps(cmd *cobra.Command, dir string, opts *depsOptions) error {
	reg, _, err := compile.Load(dir)
	if err != nil {
		return &exitError{code: exitLoad, err: newCommandError("deps", "loading theme sources", err, "Check the YAML syntax and that every descriptor is declared once.")}
	}

	payload, err := buildDepsPayload(reg)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}
	renderDepsText(cmd.OutOrStdout(), payload)
	return nil
}

func buildDepsPayload(reg *registry.Registry) (depsPayload, error) {
	defs := reg.List()
	g := graph.FromDefinitions(defs)

	payload := depsPayload{Edges: []depsEdge{}}
	for _, def := range defs {
		for _, dep := range g.Dependencies(def.Descriptor()) {
			_, resolveErr := reg.Resolve(dep)
			payload.Edges = append(payload.Edges, depsEdge{
				From:    def.Descriptor().String(),
				To:      dep.String(),
				Missing: resolveErr != nil,
			})
		}
	}

	layers, err := g.Layers()
	var cycleErr graph.ErrCircularDependency
	switch {
	case errors.As(err, &cycleErr):
		for _, d := range g.Cycles() {
			payload.Cycles = append(payload.Cycles, d.String())
		}
	case err != nil:
		return depsPayload{}, err
	default:
		for _, layer := range layers {
			wave := make([]string, len(layer))
			for i, d := range layer {
				wave[i] = d.String()
			}
			payload.Waves = append(payload.Waves, wave)
		}
	}

	return payload, nil
}

func renderDepsText(out io.Writer, payload depsPayload) {
	if len(payload.Cycles) > 0 {
		fmt.Fprintln(out, "Cyclic extends chains prevent a build order. Definitions on a cycle:")
		for _, d := range payload.Cycles {
			fmt.Fprintf(out, "  %s\n", d)
		}
	} else {
		fmt.Fprintln(out, "Build order:")
		for i, wave := range payload.Waves {
			fmt.Fprintf(out, "  %d. %v\n", i+1, wave)
		}
	}

	fmt.Fprintln(out, "\nEdges:")
	if len(payload.Edges) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, edge := range payload.Edges {
		suffix := ""
		if edge.Missing {
			suffix = " (missing)"
		}
		fmt.Fprintf(out, "  %s -> %s%s\n", edge.From, edge.To, suffix)
	}
}
