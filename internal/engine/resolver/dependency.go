package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	domainerrors "esmfix/internal/core/errors"
)

type DependencyOptions struct {
	// Dir is the dependency directory name searched in every ancestor.
	Dir          string
	Manifest     string
	EntryFields  []string
	DefaultEntry string
	// BuiltinPrefix marks host runtime modules (node:fs).
	BuiltinPrefix string
	// Builtins lists host runtime modules that carry a sub-path (fs/promises).
	Builtins []string
}

type SkipReason string

const (
	SkipBuiltin     SkipReason = "builtin"
	SkipPackageRoot SkipReason = "package_root"
)

// Dependency is the outcome of resolving a bare specifier.
type Dependency struct {
	Name string
	// Skip is set when the name was not looked up at all.
	Skip  SkipReason
	Root  string
	Entry string
	// Rewrite holds the replacement specifier when the name only resolved
	// with a .js suffix.
	Rewrite string
}

func (d Dependency) Skipped() bool {
	return d.Skip != ""
}

// DependencyResolver locates bare specifiers in dependency directories of
// the importing file's ancestors.
type DependencyResolver struct {
	opts     DependencyOptions
	builtins map[string]bool
}

func NewDependencyResolver(opts DependencyOptions) *DependencyResolver {
	if opts.Dir == "" {
		opts.Dir = "node_modules"
	}
	if opts.Manifest == "" {
		opts.Manifest = "package.json"
	}
	if len(opts.EntryFields) == 0 {
		opts.EntryFields = []string{"module", "main"}
	}
	if opts.DefaultEntry == "" {
		opts.DefaultEntry = "index.js"
	}
	builtins := make(map[string]bool, len(opts.Builtins))
	for _, name := range opts.Builtins {
		builtins[strings.TrimSpace(name)] = true
	}
	return &DependencyResolver{opts: opts, builtins: builtins}
}

// DependencyDir returns the directory name dependencies are installed in.
func (r *DependencyResolver) DependencyDir() string {
	return r.opts.Dir
}

func (r *DependencyResolver) IsBuiltin(name string) bool {
	if r.opts.BuiltinPrefix != "" && strings.HasPrefix(name, r.opts.BuiltinPrefix) {
		return true
	}
	return r.builtins[name]
}

// SubpathDepth counts the path segments after the package name. A name
// carrying a scope marker (@scope/pkg) does not count the scope segment.
func SubpathDepth(name string) int {
	depth := strings.Count(name, "/")
	if strings.Contains(name, "@") {
		depth--
	}
	if depth < 0 {
		return 0
	}
	return depth
}

// Resolve classifies a bare name and, for names with a sub-path, locates
// it. The .js fallback is tried only after the plain name failed in every
// ancestor.
func (r *DependencyResolver) Resolve(srcFile, name string) (Dependency, error) {
	dep := Dependency{Name: name}
	if r.IsBuiltin(name) {
		dep.Skip = SkipBuiltin
		return dep, nil
	}
	if SubpathDepth(name) == 0 {
		dep.Skip = SkipPackageRoot
		return dep, nil
	}

	root, ok, err := r.Locate(srcFile, name)
	if err != nil {
		return dep, err
	}
	if ok {
		entry, err := r.EntryFile(root)
		if err != nil {
			return dep, err
		}
		dep.Root, dep.Entry = root, entry
		return dep, nil
	}

	jsName := name + ".js"
	root, ok, err = r.Locate(srcFile, jsName)
	if err != nil {
		return dep, err
	}
	if !ok {
		return dep, domainerrors.New(domainerrors.CodeDependencyNotFound, "cannot resolve module").
			WithContext(domainerrors.CtxPath, srcFile).
			WithContext(domainerrors.CtxSpecifier, name)
	}
	dep.Root, dep.Entry, dep.Rewrite = root, root, jsName
	return dep, nil
}

// Locate walks from the importing file's directory up to the filesystem
// root and returns the first <dir>/<dependency dir>/<name> that exists.
func (r *DependencyResolver) Locate(srcFile, name string) (string, bool, error) {
	dir := filepath.Dir(srcFile)
	for {
		depDir := filepath.Join(dir, r.opts.Dir)
		ok, err := exists(depDir)
		if err != nil {
			return "", false, err
		}
		if ok {
			candidate := filepath.Join(depDir, filepath.FromSlash(name))
			found, err := exists(candidate)
			if err != nil {
				return "", false, err
			}
			if found {
				return candidate, true, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// EntryFile returns root itself when it is a file, otherwise the entry
// declared by the first non-empty manifest entry field, defaulting to
// DefaultEntry.
func (r *DependencyResolver) EntryFile(root string) (string, error) {
	ok, err := isRegularFile(root)
	if err != nil {
		return "", err
	}
	if ok {
		return root, nil
	}

	entry := r.opts.DefaultEntry
	manifestPath := filepath.Join(root, r.opts.Manifest)
	data, err := os.ReadFile(manifestPath)
	switch {
	case err == nil:
		var manifest map[string]any
		if err := json.Unmarshal(data, &manifest); err != nil {
			return "", domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid manifest").
				WithContext(domainerrors.CtxPath, manifestPath)
		}
		for _, field := range r.opts.EntryFields {
			if value, ok := manifest[field].(string); ok && strings.TrimSpace(value) != "" {
				entry = value
				break
			}
		}
	case isMissing(err):
		// no manifest: default entry
	default:
		return "", domainerrors.FromFS(err, "read", manifestPath)
	}
	return filepath.Join(root, filepath.FromSlash(entry)), nil
}
