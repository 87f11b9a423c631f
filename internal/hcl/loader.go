package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/branchtalk/internal/config"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a loader that evaluates expressions against the process
// environment.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// Load parses every .hcl file found under paths, in order, on top of
// config.Default and validates the result.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := config.Default()
	evalCtx := newEvalContext(l.environ())
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := apply(model, &root); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if err := config.Validate(model); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.",
		"files", len(files),
		"max_turns", model.Generation.MaxTurns,
		"branches", model.Generation.Branches,
		"goals", model.Generation.Goals,
		"publisher", model.Publisher != nil,
	)
	return model, nil
}

// findHCLFiles walks all given paths and returns a flat list of the .hcl
// files found, in path order. Missing paths are skipped.
func findHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}
