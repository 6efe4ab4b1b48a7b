// Package modresolve resolves `import` statement names to absolute file
// paths on behalf of internal/compiler, grounded on funxy's
// internal/utils.ResolveImportPath/GetModuleDir and internal/modules.Loader's
// search-path walking, simplified to what the spec's module-resolver
// external-collaborator interface requires.
package modresolve

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/29thnight/SwiftScript/internal/config"
)

// Resolver matches internal/compiler.ModuleResolver: Resolve turns an
// `import Name` statement's name into the absolute path of the source file
// it refers to.
type Resolver interface {
	Resolve(importName string) (absPath string, err error)
}

// FileResolver is the default Resolver: it searches a fixed list of import
// roots (a project's ImportRoots, or a single script's own directory) for a
// file named "<importName><ext>", trying each recognized source extension.
type FileResolver struct {
	// BaseDir anchors relative imports (those starting with "."), mirroring
	// ResolveImportPath's baseDir parameter.
	BaseDir string
	// Roots are searched in order for non-relative import names.
	Roots []string

	cache map[string]string
}

// NewFileResolver builds a FileResolver rooted at baseDir and searching
// roots for plain (non-relative) import names.
func NewFileResolver(baseDir string, roots []string) *FileResolver {
	return &FileResolver{BaseDir: baseDir, Roots: roots, cache: map[string]string{}}
}

func (r *FileResolver) Resolve(importName string) (string, error) {
	if abs, ok := r.cache[importName]; ok {
		return abs, nil
	}

	resolved := resolveRelative(r.BaseDir, importName)

	candidates := r.Roots
	if resolved != importName {
		// A relative import (".", "..") is anchored to BaseDir only, not
		// searched across every root.
		candidates = []string{filepath.Dir(resolved)}
		resolved = filepath.Base(resolved)
	}

	for _, root := range candidates {
		for _, ext := range config.SourceFileExtensions {
			candidate := filepath.Join(root, resolved+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				abs, err := filepath.Abs(candidate)
				if err != nil {
					return "", err
				}
				r.cache[importName] = abs
				return abs, nil
			}
		}
		// A directory import resolves to its own entry file, named after
		// the directory (config.HasSourceExt / GetModuleDir's convention).
		dirCandidate := filepath.Join(root, resolved)
		if info, err := os.Stat(dirCandidate); err == nil && info.IsDir() {
			base := filepath.Base(dirCandidate)
			for _, ext := range config.SourceFileExtensions {
				entry := filepath.Join(dirCandidate, base+ext)
				if _, err := os.Stat(entry); err == nil {
					abs, err := filepath.Abs(entry)
					if err != nil {
						return "", err
					}
					r.cache[importName] = abs
					return abs, nil
				}
			}
		}
	}
	return "", fmt.Errorf("cannot resolve import %q: not found in any of %v", importName, candidates)
}

// resolveRelative mirrors funxy's ResolveImportPath: a leading "." anchors
// the import to baseDir, otherwise the name is returned unchanged for root
// search.
func resolveRelative(baseDir, importName string) string {
	if len(importName) > 0 && importName[0] == '.' && baseDir != "" && baseDir != "." {
		return filepath.Join(baseDir, importName)
	}
	return importName
}
