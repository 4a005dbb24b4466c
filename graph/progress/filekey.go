package progress

import (
	"net/url"
	"path"
	"strings"
)

// canonicalizer maps every observed raw file name to one authoritative
// key, so the same underlying file reported under different spellings
// (absolute URL vs. basename) accumulates into a single FileDownloadState.
type canonicalizer struct {
	keys  []string          // authoritative keys, in first-seen order
	alias map[string]string // raw name -> authoritative key
}

func newCanonicalizer() *canonicalizer {
	return &canonicalizer{alias: make(map[string]string)}
}

// resolve returns the authoritative key for a raw file name, registering
// it as a new authoritative key if it matches no existing alias.
func (c *canonicalizer) resolve(raw string) string {
	if key, ok := c.alias[raw]; ok {
		return key
	}

	basename := toBasename(raw)
	if key, ok := c.alias[basename]; ok {
		c.alias[raw] = key
		return key
	}

	// Longest-suffix match against known authoritative keys: a later name
	// that is a suffix of (or matches the basename of) an already-known key
	// refers to the same file reported with less path context.
	best := ""
	for _, k := range c.keys {
		if strings.HasSuffix(k, basename) || strings.HasSuffix(basename, k) {
			if len(k) > len(best) {
				best = k
			}
		}
	}
	if best != "" {
		c.alias[raw] = best
		c.alias[basename] = best
		return best
	}

	c.keys = append(c.keys, basename)
	c.alias[raw] = basename
	c.alias[basename] = basename
	return basename
}

// toBasename strips a scheme+host (if raw looks like an absolute URL) and
// collapses the remainder to its final path segment.
func toBasename(raw string) string {
	s := raw
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		s = u.Path
	}
	return path.Base(s)
}
