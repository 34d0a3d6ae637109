// Package pathutil provides helpers for slash-separated entry names.
package pathutil

import "strings"

// Base returns the last element of a slash-separated name.
// For "" and "." it returns ".".
func Base(name string) string {
	if name == "" || name == "." {
		return "."
	}
	name = strings.TrimSuffix(name, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DirPrefix returns the prefix shared by every name inside dir.
// The root "." has the empty prefix.
func DirPrefix(dir string) string {
	if dir == "." {
		return ""
	}
	return dir + "/"
}

// Child returns the first element of name after prefix and whether more
// elements follow it. name must begin with prefix.
func Child(name, prefix string) (child string, nested bool) {
	rest := strings.TrimPrefix(name, prefix)
	child, _, nested = strings.Cut(rest, "/")
	return child, nested
}
