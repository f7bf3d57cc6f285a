package middlewares

import (
	"fmt"
	"path"
	"strings"
)

// DefaultProtectedRoutes are the paths that require a session out of the box.
var DefaultProtectedRoutes = []string{"/", "/dashboard(.*)", "/expenses(.*)"}

// wildcardSuffix marks a pattern that matches every path starting with its prefix.
const wildcardSuffix = "(.*)"

// excludedPrefixes are asset paths the guard never looks at.
var excludedPrefixes = []string{"/static/", "/swagger/"}

// excludedExtensions are file types served without any session handling,
// so missing assets 404 instead of redirecting to sign-in.
var excludedExtensions = map[string]struct{}{
	"html": {}, "htm": {}, "css": {}, "js": {}, "map": {}, "txt": {},
	"jpg": {}, "jpeg": {}, "webp": {}, "png": {}, "gif": {}, "svg": {}, "ico": {},
	"ttf": {}, "woff": {}, "woff2": {},
	"csv": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "zip": {}, "webmanifest": {},
}

type routePattern struct {
	path   string
	prefix bool
}

func (p routePattern) match(requestPath string) bool {
	if p.prefix {
		return strings.HasPrefix(requestPath, p.path)
	}
	return requestPath == p.path
}

func parseRoutePattern(pattern string) (routePattern, error) {
	if !strings.HasPrefix(pattern, "/") {
		return routePattern{}, fmt.Errorf("route pattern %q must start with /", pattern)
	}
	raw := strings.TrimSuffix(pattern, wildcardSuffix)
	if strings.ContainsAny(raw, "()*") {
		return routePattern{}, fmt.Errorf("route pattern %q: only a trailing %s wildcard is supported", pattern, wildcardSuffix)
	}
	return routePattern{path: raw, prefix: raw != pattern}, nil
}

// RouteMatcher classifies request paths as protected or public.
type RouteMatcher struct {
	protected []routePattern
	public    []routePattern
}

// NewRouteMatcher builds a matcher from an ordered list of protected patterns.
// Public patterns take precedence, which keeps the sign-in surface reachable
// even under a catch-all protected pattern.
func NewRouteMatcher(protected []string, public ...string) (*RouteMatcher, error) {
	m := &RouteMatcher{}
	for _, p := range protected {
		rp, err := parseRoutePattern(p)
		if err != nil {
			return nil, err
		}
		m.protected = append(m.protected, rp)
	}
	for _, p := range public {
		rp, err := parseRoutePattern(p)
		if err != nil {
			return nil, err
		}
		m.public = append(m.public, rp)
	}
	return m, nil
}

// IsExcluded reports whether the path is a static asset the guard ignores.
func (m *RouteMatcher) IsExcluded(requestPath string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(requestPath, prefix) {
			return true
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(requestPath)), ".")
	_, ok := excludedExtensions[ext]
	return ok
}

// IsProtected reports whether the path requires a valid session.
func (m *RouteMatcher) IsProtected(requestPath string) bool {
	if m.IsExcluded(requestPath) {
		return false
	}
	for _, p := range m.public {
		if p.match(requestPath) {
			return false
		}
	}
	for _, p := range m.protected {
		if p.match(requestPath) {
			return true
		}
	}
	return false
}
