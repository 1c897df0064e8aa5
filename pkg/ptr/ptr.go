// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package ptr holds utilities for taking pointer references to values
// and for reading optional values back.
package ptr

// Of returns pointer to value.
func Of[T any](value T) *T {
	return &value
}

// ValueOr returns *p, or def when p is nil.
//
// Optional tool parameters are decoded into pointer fields so that an
// explicit zero value (e.g. `"recursive": false`) can be told apart from
// an omitted one.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
