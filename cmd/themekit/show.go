package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/themekit/internal/app/compile"
	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
)

type showOptions struct {
	own        bool
	jsonOutput bool
}

func newShowCmd(root *rootFlags) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <dir> <descriptor>",
		Short: "Show the attributes of a theme definition",
		Long: `Show prints the merged attribute namespace of a definition, inherited
attributes first, followed by its overrides. With --own only the attributes the
definition declares itself are printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.own, "own", false, "Only show attributes declared by the definition itself")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output definition details as JSON")

	return cmd
}

type showDetails struct {
	def       *theme.Definition
	extends   string
	attrs     theme.Attributes
	overrides []theme.OverrideEntry
}

func runShow(cmd *cobra.Command, dir, rawDescriptor string, opts *showOptions) error {
	descriptor, err := theme.ParseDescriptor(rawDescriptor)
	if err != nil {
		return newCommandError("show", "parsing descriptor", err, "Descriptors have the form namespace:name.")
	}

	reg, _, err := compile.Load(dir)
	if err != nil {
		return &exitError{code: exitLoad, err: newCommandError("show", "loading theme sources", err, "Check the YAML syntax and that every descriptor is declared once.")}
	}

	def, err := reg.Resolve(descriptor)
	if err != nil {
		return newCommandError("show", "finding definition", err, "Run 'themekit validate' to list the available descriptors.")
	}

	details := showDetails{def: def, attrs: def.OwnAttributes(), overrides: def.Overrides()}
	if parent, ok := def.Extends(); ok {
		details.extends = parent.String()
	}
	if !opts.own {
		merged, err := def.AttributeDefs(reg)
		if err != nil {
			return newCommandError("show", "merging attributes along the extends chain", err, "Run 'themekit validate' for the full diagnosis.")
		}
		details.attrs = merged
	}

	if opts.jsonOutput {
		return renderShowJSON(cmd.OutOrStdout(), details)
	}
	renderShowText(cmd.OutOrStdout(), details, opts.own)
	return nil
}

type showJSONOverride struct {
	Target string `json:"target"`
	Value  string `json:"value"`
}

type showJSONPayload struct {
	Descriptor string             `json:"descriptor"`
	Location   string             `json:"location,omitempty"`
	Extends    string             `json:"extends,omitempty"`
	Attributes theme.Attributes   `json:"attributes"`
	Overrides  []showJSONOverride `json:"overrides"`
}

func renderShowJSON(out io.Writer, details showDetails) error {
	payload := showJSONPayload{
		Descriptor: details.def.Descriptor().String(),
		Location:   details.def.Location().String(),
		Extends:    details.extends,
		Attributes: details.attrs,
		Overrides:  make([]showJSONOverride, 0, len(details.overrides)),
	}
	for _, o := range details.overrides {
		payload.Overrides = append(payload.Overrides, showJSONOverride{Target: o.Target(), Value: o.Value()})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func renderShowText(out io.Writer, details showDetails, own bool) {
	styles := newOutputStyles(out)

	fmt.Fprintln(out, styles.title.Render("Definition: "+details.def.Descriptor().String()))
	if loc := details.def.Location().String(); loc != "" {
		fmt.Fprintf(out, "Location: %s\n", loc)
	}
	fmt.Fprintf(out, "Extends: %s\n", valueOrFallback(details.extends, "(none)"))

	heading := "Attributes:"
	if own {
		heading = "Own attributes:"
	}
	fmt.Fprintln(out, "\n"+heading)
	if details.attrs.Len() == 0 {
		fmt.Fprintln(out, styles.muted.Render("  (none)"))
	}
	for _, entry := range details.attrs.Entries() {
		value, ok := entry.Default()
		rendered := styles.muted.Render("(no default)")
		if ok {
			rendered = styles.value.Render(fmt.Sprintf("%q", value))
		}
		fmt.Fprintf(out, "  %s = %s\n", styles.key.Render(entry.Name()), rendered)
	}

	if len(details.overrides) > 0 {
		fmt.Fprintln(out, "\nOverrides:")
		for _, o := range details.overrides {
			fmt.Fprintf(out, "  %s = %s\n", styles.override.Render(o.Target()), styles.value.Render(fmt.Sprintf("%q", o.Value())))
		}
	}
}
