package docstore

import "strings"

// MatchPattern binds a concrete document path against a watched-collection
// pattern such as "inventories/{id}/inventoryItems/{stockNumber}".
// It returns the wildcard bindings and whether the path matched.
func MatchPattern(pattern, path string) (map[string]string, bool) {
	patSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(path, "/")
	if len(patSegs) != len(pathSegs) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range patSegs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := seg[1 : len(seg)-1]
			if pathSegs[i] == "" {
				return nil, false
			}
			params[name] = pathSegs[i]
			continue
		}
		if seg != pathSegs[i] {
			return nil, false
		}
	}
	return params, true
}

// Resolve finds the first pattern matching path. The empty string and false
// mean the path is not watched.
func Resolve(patterns []string, path string) (string, map[string]string, bool) {
	for _, pattern := range patterns {
		if params, ok := MatchPattern(pattern, path); ok {
			return pattern, params, true
		}
	}
	return "", nil, false
}
