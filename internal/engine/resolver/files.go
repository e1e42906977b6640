package resolver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	domainerrors "esmfix/internal/core/errors"
)

// Step records which probe of the search order produced a resolution.
type Step int

const (
	// StepExact: the candidate itself is a file.
	StepExact Step = iota
	// StepExtension: a source extension was appended to the candidate.
	StepExtension
	// StepSubstitute: the candidate's script extension was swapped for its
	// typed counterpart (./m.js found as m.ts).
	StepSubstitute
	// StepIndex: the candidate is a directory with an index file.
	StepIndex
)

func (s Step) String() string {
	switch s {
	case StepExact:
		return "exact"
	case StepExtension:
		return "extension"
	case StepSubstitute:
		return "substitute"
	case StepIndex:
		return "index"
	}
	return "unknown"
}

// Resolution is a successful File Resolver lookup.
type Resolution struct {
	Path      string
	Candidate string
	Step      Step
	// Suffix is what was appended to the candidate, in slash form
	// (".ts", "/index.js"). Empty for StepExact and StepSubstitute.
	Suffix string
	// Replaced and Extension describe a StepSubstitute swap.
	Replaced  string
	Extension string
}

var (
	scriptExtensions = []string{".js", ".jsx"}
	typedExtensions  = []string{".ts", ".tsx"}
)

// FileResolver probes the filesystem for the file a candidate path names.
type FileResolver struct {
	indexName string
}

func NewFileResolver() *FileResolver {
	return &FileResolver{indexName: "index"}
}

// Resolve walks the search order and stops at the first regular file:
// the candidate itself, candidate + script extension, typed extensions
// (appended, or substituted for a script extension the candidate already
// carries), then index files inside the candidate directory.
func (r *FileResolver) Resolve(candidate string) (Resolution, error) {
	ok, err := isRegularFile(candidate)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		return Resolution{Path: candidate, Candidate: candidate, Step: StepExact}, nil
	}

	for _, ext := range scriptExtensions {
		ok, err := isRegularFile(candidate + ext)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Path: candidate + ext, Candidate: candidate, Step: StepExtension, Suffix: ext}, nil
		}
	}

	probed := make(map[string]bool)
	for _, jsExt := range scriptExtensions {
		for _, tsExt := range typedExtensions {
			appended := candidate + tsExt
			if !probed[appended] {
				probed[appended] = true
				ok, err := isRegularFile(appended)
				if err != nil {
					return Resolution{}, err
				}
				if ok {
					return Resolution{Path: appended, Candidate: candidate, Step: StepExtension, Suffix: tsExt}, nil
				}
			}

			if !strings.HasSuffix(candidate, jsExt) {
				continue
			}
			swapped := strings.TrimSuffix(candidate, jsExt) + tsExt
			if probed[swapped] {
				continue
			}
			probed[swapped] = true
			ok, err := isRegularFile(swapped)
			if err != nil {
				return Resolution{}, err
			}
			if ok {
				return Resolution{Path: swapped, Candidate: candidate, Step: StepSubstitute, Replaced: jsExt, Extension: tsExt}, nil
			}
		}
	}

	for _, ext := range append(append([]string(nil), scriptExtensions...), typedExtensions...) {
		name := r.indexName + ext
		indexFile := filepath.Join(candidate, name)
		ok, err := isRegularFile(indexFile)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Path: indexFile, Candidate: candidate, Step: StepIndex, Suffix: "/" + name}, nil
		}
	}

	return Resolution{}, domainerrors.New(domainerrors.CodeNotFound, "no file matches import").
		WithContext(domainerrors.CtxCandidate, candidate)
}

// isRegularFile treats "does not exist" and "not a directory" as a plain
// miss; every other stat failure is returned.
func isRegularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, domainerrors.FromFS(err, "stat", path)
	}
	return info.Mode().IsRegular(), nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, domainerrors.FromFS(err, "stat", path)
	}
	return true, nil
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
