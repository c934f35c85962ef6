// Package merge holds the typed building blocks used to reconcile partial
// results of the same shape.
package merge

import "strings"

// FirstNonEmpty returns the first value that is non-blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// AppendUnique appends the items of src whose key is not yet in seen, in
// order, and records their keys. On a duplicate, onDuplicate (if non-nil)
// receives the already kept item and the incoming one.
func AppendUnique[T any, K comparable](
	dst []T,
	seen map[K]int,
	src []T,
	key func(T) K,
	onDuplicate func(kept *T, incoming T),
) []T {
	for _, item := range src {
		k := key(item)
		if idx, ok := seen[k]; ok {
			if onDuplicate != nil {
				onDuplicate(&dst[idx], item)
			}
			continue
		}
		seen[k] = len(dst)
		dst = append(dst, item)
	}
	return dst
}

// FoldUnion returns the trimmed, lower-cased union of the lists, keeping
// first-seen order and dropping blanks.
func FoldUnion(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, v := range list {
			f := Fold(v)
			if f == "" {
				continue
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// Fold is the comparison form of a string: trimmed and lower-cased.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
