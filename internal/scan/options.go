package scan

import "path/filepath"

// Option configures a scan pass.
type Option func(*options)

type options struct {
	excludePatterns []string
	excludeFn       func(relPath string, isDir bool) bool
	maxFileSize     int64
}

func defaultOptions() *options {
	return &options{}
}

// WithExclude adds glob patterns for paths to skip. Patterns match the
// slash-separated relative path or its base name; a trailing "/**" excludes
// an entire subtree. Excluded directories are not descended into.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.excludePatterns = append(o.excludePatterns, patterns...)
	}
}

// WithExcludeFunc sets a custom exclusion predicate, consulted before the
// glob patterns. Return true to skip the path.
func WithExcludeFunc(fn func(relPath string, isDir bool) bool) Option {
	return func(o *options) {
		o.excludeFn = fn
	}
}

// WithMaxFileSize skips files larger than the given byte count, recording a
// warning for each. Zero or negative disables the limit.
func WithMaxFileSize(bytes int64) Option {
	return func(o *options) {
		o.maxFileSize = bytes
	}
}

func (o *options) shouldExclude(relPath string, isDir bool) bool {
	if o.excludeFn != nil && o.excludeFn(relPath, isDir) {
		return true
	}
	return Excluded(o.excludePatterns, relPath, isDir)
}

// Excluded reports whether relPath matches any of the glob patterns under the
// scanner's rules: a pattern matches the slash-separated relative path or its
// base name, and a trailing "/**" excludes an entire subtree. Shared with the
// filesystem watcher so both skip the same paths.
func Excluded(patterns []string, relPath string, isDir bool) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		if isDir && len(pattern) > 3 && pattern[len(pattern)-3:] == "/**" {
			prefix := pattern[:len(pattern)-3]
			if matched, _ := filepath.Match(prefix, relPath); matched {
				return true
			}
		}
	}
	return false
}
