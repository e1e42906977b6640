package resolver

import (
	"path/filepath"
	"strings"
)

type SpecifierKind string

const (
	KindAbsolute SpecifierKind = "absolute"
	KindRelative SpecifierKind = "relative"
	KindBare     SpecifierKind = "bare"
)

// Specifier is a raw import specifier classified by its leading characters.
// Path is the filesystem candidate for absolute and relative specifiers and
// the raw dependency name for bare ones.
type Specifier struct {
	Kind SpecifierKind
	Raw  string
	Path string
}

// Classify never touches the filesystem.
func Classify(containingFile, raw string) Specifier {
	switch {
	case strings.HasPrefix(raw, "/"):
		return Specifier{Kind: KindAbsolute, Raw: raw, Path: raw}
	case strings.HasPrefix(raw, "./"), strings.HasPrefix(raw, "../"):
		dir := filepath.Dir(containingFile)
		return Specifier{Kind: KindRelative, Raw: raw, Path: filepath.Join(dir, filepath.FromSlash(raw))}
	default:
		return Specifier{Kind: KindBare, Raw: raw, Path: raw}
	}
}
