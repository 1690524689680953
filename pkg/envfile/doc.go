// SPDX-License-Identifier: MPL-2.0

// Package envfile loads and models the envmatrix configuration file.
//
// The format is section based: `[matrix]` holds global settings, `[env]`
// is the shared environment template, `[env:NAME]` sections define (or
// specialize) environments, and `[group:NAME]` sections declare artifact
// groups. Section name templates may contain brace groups which are
// expanded later by the factor package; envfile itself treats names as
// opaque strings.
//
// Values are stored raw. Inheritance declared with the reserved `base`
// key is flattened eagerly at load time into per-section layer lists,
// outermost base first, so that the resolver can concatenate list-valued
// settings and apply override semantics for scalars without re-walking
// references at lookup time.
package envfile
