// Package validation checks request bodies against JSON schemas before they are decoded.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

// Schema names shipped in db/schemas.
const (
	AssignmentCreate = "assignment_create"
	AssignmentUpdate = "assignment_update"
	EngineerUpdate   = "engineer_update"
	ProjectCreate    = "project_create"
	ProjectUpdate    = "project_update"
)

// Problem is one schema violation.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error reports every violation found in a document.
type Error struct {
	Schema   string
	Problems []Problem
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Path+": "+p.Message)
	}
	return fmt.Sprintf("%s: %s", e.Schema, strings.Join(msgs, "; "))
}

// Loader compiles and caches the JSON schemas found in a filesystem.
type Loader struct {
	fsys  fs.FS
	dir   string
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewLoader compiles every .json file under dir in fsys. The schema name is the
// file name without extension.
func NewLoader(fsys fs.FS, dir string) (*Loader, error) {
	l := &Loader{fsys: fsys, dir: dir, cache: make(map[string]*jsonschema.Schema)}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload recompiles all schemas and swaps the cache.
func (l *Loader) Reload() error {
	entries, err := fs.ReadDir(l.fsys, l.dir)
	if err != nil {
		return fmt.Errorf("read schemas dir: %w", err)
	}

	next := make(map[string]*jsonschema.Schema)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := fs.ReadFile(l.fsys, path.Join(l.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		next[strings.TrimSuffix(e.Name(), ".json")] = rs
	}

	l.mu.Lock()
	l.cache = next
	l.mu.Unlock()
	return nil
}

// Names lists the loaded schema names in order.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.cache))
	for n := range l.cache {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks doc against the named schema. Violations come back as *Error;
// any other error means the document could not be evaluated at all.
func (l *Loader) Validate(ctx context.Context, name string, doc []byte) error {
	l.mu.RLock()
	rs, ok := l.cache[name]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	keyErrs, err := rs.ValidateBytes(ctx, doc)
	if err != nil {
		return &Error{Schema: name, Problems: []Problem{{Path: "/", Message: err.Error()}}}
	}
	if len(keyErrs) == 0 {
		return nil
	}

	problems := make([]Problem, 0, len(keyErrs))
	for _, ke := range keyErrs {
		p := ke.PropertyPath
		if p == "" {
			p = "/"
		}
		problems = append(problems, Problem{Path: p, Message: ke.Message})
	}
	return &Error{Schema: name, Problems: problems}
}
