package resolver

import "strings"

type Style string

const (
	// StyleSource names the file found on disk (./m -> ./m.ts).
	StyleSource Style = "source"
	// StyleEmit names the script a typed source compiles to (./m -> ./m.js).
	StyleEmit Style = "emit"
)

var emittedExtensions = map[string]string{
	".ts":  ".js",
	".tsx": ".js",
}

// ExplicitSpecifier returns the specifier text that names res directly.
// The result equals raw when no rewrite is needed, which makes a second run
// over rewritten files a no-op.
func ExplicitSpecifier(raw string, res Resolution, style Style) string {
	switch res.Step {
	case StepExtension, StepIndex:
		suffix := res.Suffix
		if style == StyleEmit {
			suffix = emitted(suffix)
		}
		if strings.HasPrefix(suffix, "/") {
			raw = strings.TrimSuffix(raw, "/")
		}
		return raw + suffix
	case StepSubstitute:
		if style == StyleEmit || !strings.HasSuffix(raw, res.Replaced) {
			return raw
		}
		return strings.TrimSuffix(raw, res.Replaced) + res.Extension
	}
	return raw
}

func emitted(suffix string) string {
	for typed, script := range emittedExtensions {
		if strings.HasSuffix(suffix, typed) {
			return strings.TrimSuffix(suffix, typed) + script
		}
	}
	return suffix
}
