// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

import "strings"

// asyncEnvMarkers are the compiler-internal name fragments that
// identify a state-machine type as a generated async environment,
// per invariant 2 in the specification.
var asyncEnvMarkers = []string{"async_fn_env", "async_block_env"}

// classify implements invariant 2: a type is async_env iff its name
// contains an async-environment marker; it is state_machine iff it is
// async_env or its name contains "future" case-insensitively.
func classify(name string) Classification {
	for _, marker := range asyncEnvMarkers {
		if strings.Contains(name, marker) {
			return AsyncEnv
		}
	}
	if strings.Contains(strings.ToLower(name), "future") {
		return StateMachine
	}
	return Plain
}
