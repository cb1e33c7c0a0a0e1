package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/themekit/internal/app/compile"
)

type validateOptions struct {
	Dir       string
	JSON      bool
	Parallel  int
	CachePath string
	OutputDir string
	Diff      bool
}

var validateCmdRunner = runValidate

func newValidateCmd(root *rootFlags) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate every theme definition in a directory",
		Long: `Validate loads every *.yaml and *.yml file in the directory, then checks each
definition structurally and against its extends chain. Returns exit code 0 when
every definition is ready, 1 when any is invalid and 2 when the sources cannot
be loaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Dir = args[0]
			return validateCmdRunner(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", compile.DefaultParallel, "Maximum definitions validated concurrently")
	cmd.Flags().StringVar(&opts.CachePath, "cache", "", "Status cache file used to skip unchanged definitions")
	cmd.Flags().StringVar(&opts.OutputDir, "out", "", "Directory receiving one JSON record per ready definition")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "Print a unified diff for every artifact whose contents changed")

	return cmd
}

func runValidate(cmd *cobra.Command, root *rootFlags, opts validateOptions) error {
	log, err := root.newLogger(cmd)
	if err != nil {
		return &exitError{code: exitLoad, err: err}
	}

	svc := compile.NewService(log)
	report, err := svc.Compile(cmd.Context(), compile.Request{
		Dir:       opts.Dir,
		Parallel:  opts.Parallel,
		CachePath: opts.CachePath,
		OutputDir: opts.OutputDir,
	})
	if report == nil {
		return &exitError{code: exitLoad, err: newCommandError("validate", "loading theme sources", err, "Check the YAML syntax and that every descriptor is declared once.")}
	}

	if opts.JSON {
		if encErr := printValidateJSON(cmd, report); encErr != nil {
			return encErr
		}
	} else {
		printValidateTable(cmd, report, opts.Diff)
	}

	if err != nil {
		return &exitError{code: exitLoad, err: err}
	}
	if code := report.ExitCode(); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

func printValidateTable(cmd *cobra.Command, report *compile.Report, showDiffs bool) {
	out := cmd.OutOrStdout()

	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "DESCRIPTOR\tSTATE\tCODE\tLOCATION")
	for _, res := range report.Results {
		state := res.State.String()
		if res.Cached {
			state += " (cached)"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			res.Descriptor,
			state,
			valueOrFallback(string(res.Code), "-"),
			valueOrFallback(res.Location.String(), "-"),
		)
	}
	_ = writer.Flush()

	var failures []compile.Result
	for _, res := range report.Results {
		if res.Err != nil {
			failures = append(failures, res)
		}
	}
	if len(failures) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, res := range failures {
			fmt.Fprintf(out, "%s: %v\n", res.Descriptor, res.Err)
		}
	}

	var created, updated int
	for _, res := range report.Results {
		if res.Artifact == nil {
			continue
		}
		switch res.Artifact.Change {
		case compile.ArtifactCreated:
			created++
		case compile.ArtifactUpdated:
			updated++
			if showDiffs && res.Artifact.Diff != "" {
				fmt.Fprintf(out, "\n%s", res.Artifact.Diff)
			}
		}
	}

	fmt.Fprintf(out, "\nSummary: %d total, %d ready, %d invalid", report.Total(), report.Ready(), report.Invalid())
	if hits := report.CacheHits(); hits > 0 {
		fmt.Fprintf(out, ", %d cached", hits)
	}
	if n := report.Unvalidated(); n > 0 {
		fmt.Fprintf(out, ", %d not validated", n)
	}
	if created+updated > 0 {
		fmt.Fprintf(out, ", %d artifacts created, %d updated", created, updated)
	}
	fmt.Fprintln(out)
}

type validateJSONResult struct {
	Descriptor     string  `json:"descriptor"`
	State          string  `json:"state"`
	Code           string  `json:"code,omitempty"`
	Error          string  `json:"error,omitempty"`
	Location       string  `json:"location,omitempty"`
	Cached         bool    `json:"cached"`
	Artifact       string  `json:"artifact,omitempty"`
	ArtifactChange string  `json:"artifact_change,omitempty"`
	Diff           string  `json:"diff,omitempty"`
	Duration       float64 `json:"duration_seconds"`
}

type validateJSONSummary struct {
	Total    int     `json:"total"`
	Ready    int     `json:"ready"`
	Invalid  int     `json:"invalid"`
	Cached   int     `json:"cached"`
	Duration float64 `json:"duration_seconds"`
}

type validateJSONPayload struct {
	Dir      string               `json:"dir"`
	Summary  validateJSONSummary  `json:"summary"`
	Warnings []string             `json:"warnings,omitempty"`
	Results  []validateJSONResult `json:"results"`
}

func printValidateJSON(cmd *cobra.Command, report *compile.Report) error {
	payload := validateJSONPayload{
		Dir: report.Dir,
		Summary: validateJSONSummary{
			Total:    report.Total(),
			Ready:    report.Ready(),
			Invalid:  report.Invalid(),
			Cached:   report.CacheHits(),
			Duration: report.Duration.Seconds(),
		},
		Results: make([]validateJSONResult, len(report.Results)),
	}

	for _, w := range report.Warnings {
		payload.Warnings = append(payload.Warnings, w.String())
	}

	for i, res := range report.Results {
		entry := validateJSONResult{
			Descriptor: res.Descriptor.String(),
			State:      res.State.String(),
			Code:       string(res.Code),
			Location:   res.Location.String(),
			Cached:     res.Cached,
			Duration:   res.Duration.Seconds(),
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		if res.Artifact != nil {
			entry.Artifact = res.Artifact.Path
			entry.ArtifactChange = string(res.Artifact.Change)
			entry.Diff = res.Artifact.Diff
		}
		payload.Results[i] = entry
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func valueOrFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
