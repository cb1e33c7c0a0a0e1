package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	baseYAML = `descriptor: ui:base
attributes:
  - name: color
    default: red
  - name: spacing
    default: 4px
`
	cardYAML = `descriptor: ui:card
extends: ui:base
attributes:
  - name: border
    default: "1px solid {!color}"
overrides:
  - target: color
    value: blue
`
	invalidYAML = `descriptor: ui:broken
extends: ui:base
overrides:
  - target: shadow
    value: none
`
)

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion := version
	originalCommit := commit
	originalDate := date
	t.Cleanup(func() {
		version = originalVersion
		commit = originalCommit
		date = originalDate
	})

	version = "1.2.3"
	commit = "abcdef1"
	date = "2026-10-03"

	stdout, err := executeCommand("version")
	require.NoError(t, err)
	require.Contains(t, stdout, "themekit 1.2.3")
	require.Contains(t, stdout, "abcdef1")
	require.Contains(t, stdout, "2026-10-03")
}

func TestValidateCommand_AllReady(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML, "card.yaml": cardYAML})
	out := filepath.Join(t.TempDir(), "out")

	stdout, err := executeCommand("validate", dir, "--out", out)
	require.NoError(t, err)
	require.Contains(t, stdout, "DESCRIPTOR")
	require.Contains(t, stdout, "ui:card")
	require.Contains(t, stdout, "Summary: 2 total, 2 ready, 0 invalid")
	require.FileExists(t, filepath.Join(out, "ui", "base.json"))
}

func TestValidateCommand_InvalidExitCode(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML, "broken.yaml": invalidYAML})

	stdout, err := executeCommand("validate", dir)
	require.Equal(t, exitInvalid, exitCodeOf(t, err))
	require.Contains(t, stdout, "OVERRIDE_NOT_INHERITED")
	require.Contains(t, stdout, "Errors:")
}

func TestValidateCommand_LoadErrorExitCode(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"bad.yaml": "descriptor: [ui\n"})

	_, err := executeCommand("validate", dir)
	require.Equal(t, exitLoad, exitCodeOf(t, err))
	require.Contains(t, err.Error(), "loading theme sources")
}

func TestValidateCommand_JSONOutput(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML, "broken.yaml": invalidYAML})
	cachePath := filepath.Join(t.TempDir(), "status.json")

	stdout, err := executeCommand("validate", dir, "--json", "--cache", cachePath, "--parallel", "1")
	require.Equal(t, exitInvalid, exitCodeOf(t, err))

	var payload struct {
		Summary struct {
			Total   int `json:"total"`
			Ready   int `json:"ready"`
			Invalid int `json:"invalid"`
		} `json:"summary"`
		Results []struct {
			Descriptor string `json:"descriptor"`
			State      string `json:"state"`
			Code       string `json:"code"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	require.Equal(t, 2, payload.Summary.Total)
	require.Equal(t, 1, payload.Summary.Ready)
	require.Equal(t, 1, payload.Summary.Invalid)
	require.Equal(t, "ui:broken", payload.Results[1].Descriptor)
	require.Equal(t, "invalid", payload.Results[1].State)
	require.Equal(t, "OVERRIDE_NOT_INHERITED", payload.Results[1].Code)
	require.FileExists(t, cachePath)
}

func TestValidateCommand_PassesFlagsToRunner(t *testing.T) {
	original := validateCmdRunner
	t.Cleanup(func() { validateCmdRunner = original })

	var captured validateOptions
	var capturedVerbose bool
	validateCmdRunner = func(cmd *cobra.Command, root *rootFlags, opts validateOptions) error {
		captured = opts
		capturedVerbose = root.verbose
		return nil
	}

	_, err := executeCommand("validate", "themes", "--parallel", "8", "--cache", "c.json", "--out", "dist", "--verbose")
	require.NoError(t, err)
	require.Equal(t, validateOptions{Dir: "themes", Parallel: 8, CachePath: "c.json", OutputDir: "dist"}, captured)
	require.True(t, capturedVerbose)
}

func TestValidateCommand_RejectsUnknownLogFormat(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML})

	_, err := executeCommand("validate", dir, "--log-format", "xml")
	require.Equal(t, exitLoad, exitCodeOf(t, err))
	require.Contains(t, err.Error(), "unknown log format")
}

func TestShowCommand_MergedAttributes(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML, "card.yaml": cardYAML})

	stdout, err := executeCommand("show", dir, "ui:card")
	require.NoError(t, err)
	require.Contains(t, stdout, "Definition: ui:card")
	require.Contains(t, stdout, "Extends: ui:base")
	require.Contains(t, stdout, `color = "red"`)
	require.Contains(t, stdout, `border = "1px solid {!color}"`)
	require.Contains(t, stdout, "Overrides:")
	require.Contains(t, stdout, `color = "blue"`)
}

func TestShowCommand_OwnJSON(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML, "card.yaml": cardYAML})

	stdout, err := executeCommand("show", dir, "ui:card", "--own", "--json")
	require.NoError(t, err)

	var payload struct {
		Descriptor string                       `json:"descriptor"`
		Extends    string                       `json:"extends"`
		Attributes map[string]map[string]string `json:"attributes"`
		Overrides  []struct {
			Target string `json:"target"`
			Value  string `json:"value"`
		} `json:"overrides"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	require.Equal(t, "ui:card", payload.Descriptor)
	require.Equal(t, "ui:base", payload.Extends)
	require.Len(t, payload.Attributes, 1)
	require.Equal(t, "1px solid {!color}", payload.Attributes["border"]["default"])
	require.Len(t, payload.Overrides, 1)
	require.Equal(t, "blue", payload.Overrides[0].Value)
}

func TestShowCommand_NotFound(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML})

	_, err := executeCommand("show", dir, "ui:missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "DEFINITION_NOT_FOUND")
}

func TestShowCommand_BadDescriptor(t *testing.T) {
	_, err := executeCommand("show", t.TempDir(), "nocolon")
	require.Error(t, err)
	require.Contains(t, err.Error(), "namespace:name")
}

func TestDepsCommand(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{
		"base.yaml": baseYAML,
		"card.yaml": cardYAML + "---\ndescriptor: ui:orphan\nextends: ui:gone\n",
	})

	stdout, err := executeCommand("deps", dir)
	require.NoError(t, err)
	require.Contains(t, stdout, "Build order:")
	require.Contains(t, stdout, "ui:card -> ui:base")
	require.Contains(t, stdout, "ui:orphan -> ui:gone (missing)")
}

func TestDepsCommand_ReportsCycles(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{
		"loop.yaml": "descriptor: loop:a\nextends: loop:b\n---\ndescriptor: loop:b\nextends: loop:a\n",
	})

	stdout, err := executeCommand("deps", dir, "--json")
	require.NoError(t, err)

	var payload depsPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	require.Equal(t, []string{"loop:a", "loop:b"}, payload.Cycles)
	require.Empty(t, payload.Waves)
	require.Len(t, payload.Edges, 2)
}

// --- helpers ---

func executeCommand(args ...string) (string, error) {
	root := newRootCmd()
	stdout := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func writeThemeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	return dir
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	return exitErr.code
}

func TestValidateCommand_PrintsArtifactDiffs(t *testing.T) {
	dir := writeThemeDir(t, map[string]string{"base.yaml": baseYAML})
	out := t.TempDir()

	_, err := executeCommand("validate", dir, "--out", out)
	require.NoError(t, err)

	edited := baseYAML + "  - name: radius\n    default: 2px\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(edited), 0o644))

	stdout, err := executeCommand("validate", dir, "--out", out, "--diff")
	require.NoError(t, err)
	require.Contains(t, stdout, "+++ ")
	require.Contains(t, stdout, `"radius"`)
	require.Contains(t, stdout, "0 artifacts created, 1 updated")
}
