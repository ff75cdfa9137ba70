package featurestore

import "strings"

// JoinPath joins a storage location with a child path segment. Unlike
// filepath.Join it preserves URI schemes such as s3://, matching the
// platform's path-join semantics.
func JoinPath(base string, elem ...string) string {
	parts := []string{strings.TrimSuffix(base, "/")}
	for _, e := range elem {
		parts = append(parts, strings.Trim(e, "/"))
	}
	return strings.Join(parts, "/")
}
