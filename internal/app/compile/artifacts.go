package compile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
	"github.com/alexisbeaulieu97/themekit/pkg/diff"
)

// ArtifactChange describes what emission did to an artifact file.
type ArtifactChange string

const (
	ArtifactCreated   ArtifactChange = "created"
	ArtifactUpdated   ArtifactChange = "updated"
	ArtifactUnchanged ArtifactChange = "unchanged"
)

// Artifact records one emitted file.
type Artifact struct {
	Path   string
	Change ArtifactChange
	// Diff holds the unified diff from the previous contents when Change is
	// ArtifactUpdated.
	Diff string
}

// ArtifactPath returns where the serialized record of d is written under dir.
func ArtifactPath(dir string, d theme.Descriptor) string {
	return filepath.Join(dir, d.Namespace, d.Name+".json")
}

// writeArtifact stores the serialized record of def. Files whose contents
// would not change are left untouched.
func writeArtifact(dir string, def *theme.Definition) (Artifact, error) {
	target := ArtifactPath(dir, def.Descriptor())
	artifact := Artifact{Path: target}

	data, err := json.MarshalIndent(def.Serialize(), "", "  ")
	if err != nil {
		return artifact, fmt.Errorf("marshal %s: %w", def.Descriptor(), err)
	}
	data = append(data, '\n')

	previous, err := os.ReadFile(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		artifact.Change = ArtifactCreated
	case err != nil:
		return artifact, fmt.Errorf("read artifact %s: %w", target, err)
	case bytes.Equal(previous, data):
		artifact.Change = ArtifactUnchanged
		return artifact, nil
	default:
		artifact.Change = ArtifactUpdated
		artifact.Diff = diff.GenerateUnifiedDiff(previous, data, target, target+" (new)")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return artifact, fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return artifact, fmt.Errorf("write artifact %s: %w", target, err)
	}
	return artifact, nil
}
