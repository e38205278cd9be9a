package runner

import (
	"fmt"
	"image"
	"os"

	"github.com/typst-community/tytanic/internal/doc"
	"github.com/typst-community/tytanic/internal/ident"
)

// ArtifactKind names the destinations an exporter can write pages to.
type ArtifactKind uint8

const (
	// ArtifactOutput is the test's rendered primary pages.
	ArtifactOutput ArtifactKind = iota
	// ArtifactDiff is the per-page difference images of a failed
	// comparison.
	ArtifactDiff
	// ArtifactReference is the persistent reference store, written by
	// the update stage.
	ArtifactReference
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactOutput:
		return "output"
	case ArtifactDiff:
		return "diff"
	case ArtifactReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Exporter persists a test's rendered artifacts. Output and diff
// export failures are runner faults; a reference write failure during
// the update stage is recorded in the trace instead.
type Exporter interface {
	ExportPages(project Project, test ident.Test, kind ArtifactKind, pages []image.Image) error
}

// NopExporter discards every artifact; used by hermetic runs that only
// want the trace.
type NopExporter struct{}

func (NopExporter) ExportPages(Project, ident.Test, ArtifactKind, []image.Image) error {
	return nil
}

// DirExporter writes artifacts as numbered PNGs into the directories
// the project assigns each artifact kind.
type DirExporter struct {
	// Save configures PNG writing, e.g. a lossless optimizer pass.
	Save *doc.SaveOptions
}

func (e *DirExporter) ExportPages(project Project, test ident.Test, kind ArtifactKind, pages []image.Image) error {
	dir := artifactDir(project, test, kind)
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", kind, err)
	}
	return doc.New(pages).Save(dir, e.Save)
}

func artifactDir(project Project, test ident.Test, kind ArtifactKind) string {
	switch kind {
	case ArtifactOutput:
		return project.OutputDir(test)
	case ArtifactDiff:
		return project.DiffDir(test)
	case ArtifactReference:
		return project.ReferenceDir(test)
	default:
		return ""
	}
}
