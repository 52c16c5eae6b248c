package asar

import "strings"

// NormalizePath converts a user-provided path to fs.ValidPath format.
//
// It performs the following transformations:
//   - Strips leading slashes: "/lib/app.js" → "lib/app.js"
//   - Strips trailing slashes: "lib/" → "lib"
//   - Collapses consecutive slashes: "lib//app.js" → "lib/app.js"
//   - Converts empty string and "/" to the root marker "."
//
// Paths containing "." or ".." elements are preserved and will be rejected
// by Archive methods via fs.ValidPath.
func NormalizePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}
