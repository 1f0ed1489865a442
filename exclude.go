package interceptor

import "regexp"

type exclusionKind int

const (
	excludeNone exclusionKind = iota
	excludeExact
	excludeSet
	excludePattern
	excludePredicate
)

// Exclusion decides whether a request URI is exempt from all OAuth2
// processing. It is a tagged variant over four spec shapes: an exact URI,
// a set of URIs, a regular expression matched against the full URI, or an
// arbitrary predicate. A nil *Exclusion never excludes anything.
//
// Matching is pure and side-effect free; every pipeline stage re-checks it
// independently.
type Exclusion struct {
	kind      exclusionKind
	exact     string
	set       map[string]struct{}
	pattern   *regexp.Regexp
	predicate func(uri string) bool
}

// ExcludeExact excludes exactly the given URI.
func ExcludeExact(uri string) *Exclusion {
	return &Exclusion{kind: excludeExact, exact: uri}
}

// ExcludeSet excludes any URI contained in the given set.
func ExcludeSet(uris ...string) *Exclusion {
	set := make(map[string]struct{}, len(uris))
	for _, u := range uris {
		set[u] = struct{}{}
	}
	return &Exclusion{kind: excludeSet, set: set}
}

// ExcludePattern excludes URIs fully matched by the given pattern. A partial
// match does not exclude: the pattern must cover the whole URI.
func ExcludePattern(re *regexp.Regexp) *Exclusion {
	return &Exclusion{kind: excludePattern, pattern: re}
}

// ExcludePredicate excludes URIs for which fn returns true.
func ExcludePredicate(fn func(uri string) bool) *Exclusion {
	return &Exclusion{kind: excludePredicate, predicate: fn}
}

// NewExclusion builds an Exclusion from a loosely-typed spec, mirroring the
// shapes accepted by the typed constructors:
//
//   - string: exact match
//   - []string or map[string]struct{}: set membership
//   - *regexp.Regexp: full match
//   - func(string) bool: predicate
//
// Any other shape is a configuration error, never a silent "not excluded".
func NewExclusion(spec any) (*Exclusion, error) {
	switch s := spec.(type) {
	case nil:
		return nil, nil
	case *Exclusion:
		return s, nil
	case string:
		return ExcludeExact(s), nil
	case []string:
		return ExcludeSet(s...), nil
	case map[string]struct{}:
		set := make(map[string]struct{}, len(s))
		for u := range s {
			set[u] = struct{}{}
		}
		return &Exclusion{kind: excludeSet, set: set}, nil
	case *regexp.Regexp:
		return ExcludePattern(s), nil
	case func(string) bool:
		return ExcludePredicate(s), nil
	default:
		return nil, configErrorf("Exclude", "unsupported exclusion spec type %T", spec)
	}
}

// Excluded reports whether uri is exempt from OAuth2 processing.
func (e *Exclusion) Excluded(uri string) bool {
	if e == nil {
		return false
	}
	switch e.kind {
	case excludeExact:
		return uri == e.exact
	case excludeSet:
		_, ok := e.set[uri]
		return ok
	case excludePattern:
		loc := e.pattern.FindStringIndex(uri)
		return loc != nil && loc[0] == 0 && loc[1] == len(uri)
	case excludePredicate:
		return e.predicate(uri)
	default:
		return false
	}
}
