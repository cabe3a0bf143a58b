package fileset

import (
	"fmt"
	"io"
	"regexp"

	globlib "github.com/pachyderm/ohmyglob"
)

// Matcher decides whether a normalized relative path matches a pattern.
// Both glob and regexp forms are provided; anything implementing Match works.
type Matcher interface {
	Match(path string) bool
}

type globMatcher struct {
	glob *globlib.Glob
}

func (m globMatcher) Match(path string) bool { return m.glob.Match(path) }

// Glob compiles a '/'-separated glob pattern into a Matcher.
// "**" spans directories, "*" does not.
func Glob(pattern string) (Matcher, error) {
	g, err := globlib.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
	}
	return globMatcher{glob: g}, nil
}

// MustGlob is like Glob but panics on a bad pattern. For literals.
func MustGlob(pattern string) Matcher {
	m, err := Glob(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Match(path string) bool { return m.re.MatchString(path) }

// Regex wraps a compiled regular expression as a Matcher.
func Regex(re *regexp.Regexp) Matcher {
	return regexMatcher{re: re}
}

// MergeFunc resolves a path collision between an existing entry and newly
// added content. It reads both streams and writes the merged result to out.
type MergeFunc func(prev, next io.Reader, out io.Writer) error

// Merger pairs a path pattern with a merge function. Mergers are consulted
// in order; the first matching pattern wins.
type Merger struct {
	Pattern Matcher
	Merge   MergeFunc
}

// Concat is a MergeFunc that appends the new content after the existing
// content. Useful for aggregated files such as service registries.
func Concat(prev, next io.Reader, out io.Writer) error {
	if _, err := io.Copy(out, prev); err != nil {
		return err
	}
	_, err := io.Copy(out, next)
	return err
}

// KeepExisting is a MergeFunc that discards the new content.
func KeepExisting(prev, _ io.Reader, out io.Writer) error {
	_, err := io.Copy(out, prev)
	return err
}
