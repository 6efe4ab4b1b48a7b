// Package project loads an ssproject descriptor: the file that tells the CLI
// and the embedding surface where a SwiftScript project's entry file and
// import roots live, mirroring original_source/include/ss_project.hpp's
// SSProject and its server-side SSProjectInfo counterpart (both fields
// resolved to absolute paths once loaded).
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/29thnight/SwiftScript/internal/config"
)

// Project is a loaded ssproject descriptor with every path already resolved
// to absolute form, so callers never re-derive relative-path semantics.
type Project struct {
	ProjectFile string
	ProjectDir  string
	EntryFile   string
	ImportRoots []string
}

// descriptor is the on-disk YAML shape (`ssproject.yaml`). The original's
// XML-like format used plain element names; this mirrors those names in
// lowercase YAML keys so a hand-written descriptor reads the same way.
type descriptor struct {
	Entry       string   `yaml:"entry"`
	ImportRoots []string `yaml:"import_roots"`
}

// DescriptorNames are the filenames FindProject looks for, checked in
// order. Load reads whatever path it is given.
var DescriptorNames = []string{"ssproject.yaml", "ssproject.yml"}

// Load reads and resolves the descriptor at path, returning a Project whose
// EntryFile and ImportRoots are absolute.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if d.Entry == "" {
		return nil, fmt.Errorf("%s: missing required \"entry\" field", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	dir := filepath.Dir(absPath)

	p := &Project{
		ProjectFile: absPath,
		ProjectDir:  dir,
		EntryFile:   filepath.Join(dir, d.Entry),
	}
	if len(d.ImportRoots) == 0 {
		p.ImportRoots = []string{dir}
	} else {
		for _, r := range d.ImportRoots {
			p.ImportRoots = append(p.ImportRoots, filepath.Join(dir, r))
		}
	}
	return p, nil
}

// LoadProject is an alias for Load under the external-collaborator entry
// point's name. pkg/script and cmd/swiftscript do not call it.
func LoadProject(path string) (*Project, error) {
	return Load(path)
}

// FindProject walks up from startDir looking for one of DescriptorNames,
// loading the first one found. Returns nil, nil if none exists anywhere up
// to the filesystem root, matching original_source's FindFirstSSProject
// treating "no project file" as a non-error, single-script-file mode.
func FindProject(startDir string) (*Project, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		for _, name := range DescriptorNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return Load(candidate)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// SingleFileProject synthesizes a Project for a standalone script with no
// descriptor: its own directory is both the entry location and the sole
// import root, letting the compiler's resolver treat a bare `.sws` file the
// same way as a full project.
func SingleFileProject(sourcePath string) (*Project, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	return &Project{
		ProjectDir:  dir,
		EntryFile:   abs,
		ImportRoots: []string{dir},
	}, nil
}

// IsSourceFile reports whether path has a recognized SwiftScript extension
// (config.SourceFileExtensions), matching funxy's own isSourceFile helper.
func IsSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range config.SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
