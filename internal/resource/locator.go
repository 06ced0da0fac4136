package resource

import (
	"os"
	"path/filepath"
)

// Source names where a candidate path came from.
type Source string

const (
	SourceResourceDir Source = "resource_dir"
	SourceExeDir      Source = "exe_dir"
	SourceUpDir       Source = "exe_dir/_up_"
	SourceSiblingDir  Source = "exe_dir/../resources"
)

// upDir is where bundlers place resources whose source path climbed out of
// the project directory ("../x" becomes "_up_/x").
const upDir = "_up_"

// Paths is the part of the host the locator needs.
type Paths interface {
	ResourceDir() (string, error)
	Executable() (string, error)
}

// Probe is one evaluated candidate.
type Probe struct {
	Source Source
	Path   string
	Exists bool
}

// candidate produces a path to probe, or false if its base directory is
// unavailable.
type candidate struct {
	source Source
	path   func(name string) (string, bool)
}

// Locator resolves resource names against the host layout.
type Locator struct {
	paths      Paths
	exists     func(path string) bool
	candidates []candidate
}

// NewLocator creates a Locator backed by the given host paths.
func NewLocator(paths Paths) *Locator {
	l := &Locator{
		paths:  paths,
		exists: pathExists,
	}
	l.candidates = []candidate{
		{source: SourceResourceDir, path: l.inResourceDir},
		{source: SourceExeDir, path: l.inExeDir()},
		{source: SourceUpDir, path: l.inExeDir(upDir)},
		{source: SourceSiblingDir, path: l.inExeDir("..", "resources")},
	}
	return l
}

// Resolve returns the absolute path of the first existing candidate for
// name. Candidates after the first hit are never evaluated.
func (l *Locator) Resolve(name string) (string, bool) {
	for _, c := range l.candidates {
		path, ok := c.path(name)
		if !ok {
			continue
		}
		if l.exists(path) {
			return path, true
		}
	}
	return "", false
}

// Explain evaluates every candidate for name, in resolution order. The
// first probe with Exists set is the one Resolve returns.
func (l *Locator) Explain(name string) []Probe {
	probes := make([]Probe, 0, len(l.candidates))
	for _, c := range l.candidates {
		path, ok := c.path(name)
		if !ok {
			continue
		}
		probes = append(probes, Probe{
			Source: c.source,
			Path:   path,
			Exists: l.exists(path),
		})
	}
	return probes
}

func (l *Locator) inResourceDir(name string) (string, bool) {
	dir, err := l.paths.ResourceDir()
	if err != nil || dir == "" {
		return "", false
	}
	return absJoin(dir, name)
}

// inExeDir returns a candidate rooted at the executable's directory.
func (l *Locator) inExeDir(elem ...string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		exe, err := l.paths.Executable()
		if err != nil || exe == "" {
			return "", false
		}
		parts := append([]string{filepath.Dir(exe)}, elem...)
		return absJoin(filepath.Join(parts...), name)
	}
}

func absJoin(dir, name string) (string, bool) {
	path, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	return path, true
}

// pathExists reports whether path exists. Any stat error counts as absent.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
