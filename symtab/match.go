// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symtab

import (
	"regexp"
	"strings"
)

var asPollPat = regexp.MustCompile(`^(.*) as [A-Za-z0-9_:]*Future>::poll$`)

// reduceToBaseName mirrors the struct-name reduction used to compare
// a state-machine's Rust type name against a demangled poll symbol's
// type prefix: drop any generic parameter list, then keep only the
// final path segment.
func reduceToBaseName(name string) string {
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	parts := strings.Split(name, "::")
	return parts[len(parts)-1]
}

// hasAsyncMarker reports whether name contains a compiler-generated
// async-environment marker anywhere, in which case
// the base name alone ("{async_fn_env#0}") is too generic to require
// as a suffix match and a looser containment match is used instead.
func hasAsyncMarker(name string) bool {
	for _, marker := range asyncEnvMarkersForMatch {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

var asyncEnvMarkersForMatch = []string{"async_fn_env", "async_block_env"}

// extractTypePrefix pulls the receiver-type text out of a demangled
// poll symbol. It first looks for the explicit trait-qualified form
// ("<Foo as path::Future>::poll"), then falls back to a bare
// "Foo::poll" suffix.
func extractTypePrefix(demangled string) (string, bool) {
	if m := asPollPat.FindStringSubmatch(demangled); m != nil {
		prefix := strings.TrimPrefix(m[1], "<")
		return prefix, true
	}
	if strings.HasSuffix(demangled, "::poll") {
		return strings.TrimSuffix(demangled, "::poll"), true
	}
	return "", false
}

// FindPollSymbol locates the mangled poll symbol belonging to
// structName among tbl's symbol entries. Matching rule:
//
//   - If structName carries an async-environment marker, the queried
//     base name is only the marker segment itself, which is too
//     generic for a suffix match; a candidate is accepted if its
//     type-prefix merely contains structName's base name.
//   - Otherwise a candidate is accepted only if its type-prefix ends
//     with structName's base name, so "SomeFuture<Foo>" (prefix ends
//     in "Foo>", not "Foo") is correctly rejected in favor of a
//     symbol whose prefix genuinely ends in "Foo".
//
// The first accepted candidate, in symbol-table order, is returned.
func (t *Table) FindPollSymbol(structName string) (string, bool) {
	base := reduceToBaseName(structName)
	marker := hasAsyncMarker(structName)

	for i, dem := range t.lines.Demangled {
		prefix, ok := extractTypePrefix(dem)
		if !ok {
			continue
		}
		if marker {
			if strings.Contains(prefix, base) {
				return t.lines.Mangled[i], true
			}
			continue
		}
		if strings.HasSuffix(prefix, base) {
			return t.lines.Mangled[i], true
		}
	}
	return "", false
}
