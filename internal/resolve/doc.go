// SPDX-License-Identifier: MPL-2.0

// Package resolve turns the loaded configuration into one immutable
// execution plan per concrete environment.
//
// For each environment it flattens the section inheritance chain
// (outermost base first), filters every multi-line setting through the
// environment's factor set, concatenates list-valued settings across
// layers and applies most-factor-specific-wins semantics to scalars,
// then recursively substitutes {token} references until every value is
// literal. An unresolved or cyclic token is a SubstitutionError for
// that environment only; sibling environments resolve independently.
package resolve
