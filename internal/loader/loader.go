// Package loader implements the module loader's external-interface
// contract (spec.md §6): given a ModuleID, yield an ordered list of
// source files plus an ordered list of auxiliary (pass-through) files,
// with imports loaded before importer and the prelude loaded first.
// Grounded on the teacher's internal/loader.ModuleLoader (cache +
// resolvePath + import-graph DFS), generalized from AILANG's single
// ".ail extension, repo-relative path" scheme to this spec's
// {package_kind, path_segments} identifier and its Std/Vendor/Root
// package kinds. A Vendor package additionally carries a package.yaml
// manifest (org/name/version/dependencies), decoded with
// gopkg.in/yaml.v3 and cached per org/name.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PackageKind distinguishes the standard library, a vendored dependency,
// and the root module being compiled (spec.md §6).
type PackageKind int

const (
	Std PackageKind = iota
	Vendor
	Root
)

func (k PackageKind) String() string {
	switch k {
	case Std:
		return "std"
	case Vendor:
		return "vendor"
	default:
		return "root"
	}
}

// ModuleID identifies a module by its package kind and path segments
// (spec.md §6). Org/Name are only meaningful for Vendor.
type ModuleID struct {
	Kind         PackageKind
	Org, Name    string // set only when Kind == Vendor
	PathSegments []string
}

func (m ModuleID) String() string {
	switch m.Kind {
	case Vendor:
		return fmt.Sprintf("vendor(%s/%s)/%s", m.Org, m.Name, strings.Join(m.PathSegments, "/"))
	default:
		return fmt.Sprintf("%s/%s", m.Kind, strings.Join(m.PathSegments, "/"))
	}
}

// SourceFile is one source file of a module: its path (for Loc.File)
// and its raw text, handed untouched to the (out-of-scope) parser
// collaborator.
type SourceFile struct {
	Path string
	Text string
}

// AuxiliaryFile is a non-source file copied alongside generated output
// (spec.md §6 "auxiliary files"), e.g. static assets a module ships.
type AuxiliaryFile struct {
	Path string
	Data []byte
}

// Module is the loader's per-ModuleID result: ordered source files,
// ordered auxiliary files, and the ids this module imports (extracted
// by a caller-supplied scanner, since import syntax belongs to the
// surface grammar collaborator).
type Module struct {
	ID        ModuleID
	RunID     string // synthetic per-load identifier, for diagnostics/caching keys
	Sources   []SourceFile
	Auxiliary []AuxiliaryFile
	Imports   []ModuleID
	Manifest  *VendorManifest // set only when ID.Kind == Vendor
}

// VendorManifest describes a vendored package's own metadata, decoded
// from package.yaml at the root of its vendor directory (spec.md §6's
// Vendor package kind). Org/Name must match the ModuleID the manifest
// was loaded for, catching a vendor tree that was copied under the
// wrong name.
type VendorManifest struct {
	Org          string   `yaml:"org"`
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Dependencies []string `yaml:"dependencies"`
}

// ScanImports extracts the ModuleIDs a module's source text imports.
// The loader calls this once per loaded module to build the import
// graph; it is supplied by the caller because import syntax is part of
// the surface grammar, not this package's concern.
type ScanImports func(sources []SourceFile) ([]ModuleID, error)

// Loader resolves ModuleIDs to filesystem content and caches results,
// mirroring the teacher's ModuleLoader.cache/basePath fields.
type Loader struct {
	root      string // filesystem root for Root-kind modules
	stdRoot   string // filesystem root for Std-kind modules
	cache     map[string]*Module
	manifests map[string]*VendorManifest // keyed by "org/name"
	scan      ScanImports
}

// New creates a Loader rooted at root (the compiled package's own
// directory) and stdRoot (the standard library's directory).
func New(root, stdRoot string, scan ScanImports) *Loader {
	return &Loader{
		root:      root,
		stdRoot:   stdRoot,
		cache:     make(map[string]*Module),
		manifests: make(map[string]*VendorManifest),
		scan:      scan,
	}
}

// vendorManifest loads and caches the package.yaml describing id's
// vendor package (one manifest per org/name, shared across every
// path-segment submodule under it).
func (l *Loader) vendorManifest(id ModuleID) (*VendorManifest, error) {
	key := id.Org + "/" + id.Name
	if m, ok := l.manifests[key]; ok {
		return m, nil
	}
	dir := filepath.Join(l.root, "vendor", id.Org, id.Name)
	data, err := os.ReadFile(filepath.Join(dir, "package.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loader: read manifest for %s: %w", key, err)
	}
	var m VendorManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("loader: decode manifest for %s: %w", key, err)
	}
	if m.Org != id.Org || m.Name != id.Name {
		return nil, fmt.Errorf("loader: manifest at %s declares %s/%s, expected %s", dir, m.Org, m.Name, key)
	}
	l.manifests[key] = &m
	return &m, nil
}

// sourceExt is the on-disk extension the parser collaborator's
// concrete syntax is assumed to use; a stand-in that a real surface
// grammar would own.
const sourceExt = ".rws"

func (l *Loader) dir(id ModuleID) string {
	switch id.Kind {
	case Std:
		return filepath.Join(l.stdRoot, filepath.Join(id.PathSegments...))
	case Vendor:
		return filepath.Join(l.root, "vendor", id.Org, id.Name, filepath.Join(id.PathSegments...))
	default:
		return filepath.Join(l.root, filepath.Join(id.PathSegments...))
	}
}

// Load reads one module's source and auxiliary files, without
// recursing into its imports (see LoadAll for the ordered transitive
// closure).
func (l *Loader) Load(id ModuleID) (*Module, error) {
	key := id.String()
	if m, ok := l.cache[key]; ok {
		return m, nil
	}

	dir := l.dir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", dir, err)
	}

	var sources []SourceFile
	var aux []AuxiliaryFile
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		if strings.HasSuffix(ent.Name(), sourceExt) {
			text, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("loader: read %s: %w", path, err)
			}
			sources = append(sources, SourceFile{Path: path, Text: normalize(text)})
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("loader: read %s: %w", path, err)
			}
			aux = append(aux, AuxiliaryFile{Path: path, Data: data})
		}
	}

	var imports []ModuleID
	if l.scan != nil {
		imports, err = l.scan(sources)
		if err != nil {
			return nil, err
		}
	}

	var manifest *VendorManifest
	if id.Kind == Vendor {
		manifest, err = l.vendorManifest(id)
		if err != nil {
			return nil, err
		}
	}

	m := &Module{ID: id, RunID: uuid.NewString(), Sources: sources, Auxiliary: aux, Imports: imports, Manifest: manifest}
	l.cache[key] = m
	return m, nil
}

// preludeID is the well-known standard-library module every
// compilation implicitly imports first (spec.md §6).
var preludeID = ModuleID{Kind: Std, PathSegments: []string{"prelude"}}

// LoadAll loads roots and their transitive import closure, returning
// modules in dependency order: the prelude first, then every import
// before its importer (spec.md §6), via a post-order DFS over the
// import graph. A cycle is reported rather than silently truncated.
func (l *Loader) LoadAll(roots []ModuleID) ([]*Module, error) {
	var order []*Module
	visited := make(map[string]bool)
	inProgress := make(map[string]bool)

	var visit func(id ModuleID) error
	visit = func(id ModuleID) error {
		key := id.String()
		if visited[key] {
			return nil
		}
		if inProgress[key] {
			return fmt.Errorf("loader: import cycle at %s", key)
		}
		inProgress[key] = true

		m, err := l.Load(id)
		if err != nil {
			return err
		}
		for _, dep := range m.Imports {
			if err := visit(dep); err != nil {
				return err
			}
		}

		inProgress[key] = false
		visited[key] = true
		order = append(order, m)
		return nil
	}

	if err := visit(preludeID); err != nil {
		return nil, err
	}
	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// normalize applies the teacher's BOM-strip/CRLF-normalize content
// cleanup (internal/loader.ModuleLoader.NormalizeContent) before the
// parser collaborator ever sees a source file's text.
func normalize(content []byte) string {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
	}
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
