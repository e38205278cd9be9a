package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/typst-community/tytanic/internal/filterlang"
	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/logger"
	"github.com/typst-community/tytanic/internal/multierror"
	"github.com/typst-community/tytanic/internal/provide"
	"github.com/typst-community/tytanic/internal/suite"
)

// On-disk test layout, relative to the project root:
//
//	tests/<ident>/test.typ   the test script (required)
//	tests/<ident>/ref.typ    sibling reference script (ephemeral)
//	tests/<ident>/ref/       stored reference pages (persistent)
//	tests/<ident>/out/       rendered output pages (artifact)
//	tests/<ident>/diff/      difference pages (artifact)
//
// A test directory with neither ref.typ nor ref/ is compile-only.
const (
	testsDirName = "tests"
	testFileName = "test.typ"
	refFileName  = "ref.typ"
	refDirName   = "ref"
	outDirName   = "out"
	diffDirName  = "diff"
)

// project implements runner.Project over the directory convention
// above.
type project struct {
	root string
}

func openProject(root string) (*project, error) {
	info, err := os.Stat(filepath.Join(root, testsDirName))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s does not contain a %s directory", root, testsDirName)
	}
	return &project{root: root}, nil
}

func (p *project) testDir(t ident.Test) string {
	return filepath.Join(p.root, testsDirName, filepath.FromSlash(t.Ident.String()))
}

func (p *project) TestSource(t ident.Test) provide.FileID {
	return provide.NewFileID("/" + testsDirName + "/" + t.Ident.String() + "/" + testFileName)
}

func (p *project) ReferenceSource(t ident.Test) provide.FileID {
	return provide.NewFileID("/" + testsDirName + "/" + t.Ident.String() + "/" + refFileName)
}

func (p *project) ReferenceDir(t ident.Test) string {
	return filepath.Join(p.testDir(t), refDirName)
}

func (p *project) OutputDir(t ident.Test) string {
	return filepath.Join(p.testDir(t), outDirName)
}

func (p *project) DiffDir(t ident.Test) string {
	return filepath.Join(p.testDir(t), diffDirName)
}

// discover walks the tests directory and builds the suite, marking
// each found test as matched or filtered by expr. A nil expr matches
// everything except skip-annotated tests. Malformed test directories
// don't abort the walk; every problem found is reported together.
func (p *project) discover(expr filterlang.Expr) (*suite.Suite, error) {
	s := suite.New()
	testsRoot := filepath.Join(p.root, testsDirName)

	var errs multierror.Error
	err := filepath.WalkDir(testsRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() || path == testsRoot {
			return nil
		}
		// Artifact and reference directories are never test
		// directories themselves.
		switch entry.Name() {
		case refDirName, outDirName, diffDirName:
			return filepath.SkipDir
		}

		test, ok, err := p.loadTest(testsRoot, path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if !ok {
			return nil
		}

		matched := !test.HasSkip()
		if expr != nil {
			matched = expr.Eval(&test)
		}
		s.Insert(test, matched)
		logger.Debugf("discovered test %s (matched: %t)", test.Ident, matched)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs.Unique()
	}
	return s, nil
}

func (p *project) loadTest(testsRoot, dir string) (ident.Test, bool, error) {
	sourcePath := filepath.Join(dir, testFileName)
	source, err := os.ReadFile(sourcePath)
	if os.IsNotExist(err) {
		return ident.Test{}, false, nil
	}
	if err != nil {
		return ident.Test{}, false, err
	}

	rel, err := filepath.Rel(testsRoot, dir)
	if err != nil {
		return ident.Test{}, false, err
	}
	id, err := ident.Parse(filepath.ToSlash(rel))
	if err != nil {
		return ident.Test{}, false, fmt.Errorf("test directory %s: %w", dir, err)
	}

	annotations, err := ident.ParseAnnotations(source)
	if err != nil {
		return ident.Test{}, false, fmt.Errorf("test %s: %w", id, err)
	}

	kind := ident.CompileOnly
	if _, err := os.Stat(filepath.Join(dir, refFileName)); err == nil {
		kind = ident.Ephemeral
	} else if info, err := os.Stat(filepath.Join(dir, refDirName)); err == nil && info.IsDir() {
		kind = ident.Persistent
	}

	return ident.NewUnitTest(id, kind, annotations...), true, nil
}
