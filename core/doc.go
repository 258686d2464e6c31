// Package core defines the shared domain types of the weave orchestration
// core: the Item sum type (knowledge and work variants), the Session
// container with its id-assignment and reference-pruning invariants, psyche
// descriptors with their awareness configuration, and the small set of
// configuration error sentinels.
//
// Packages higher in the stack (extract, assemble, psyche, dispatch, session)
// depend on core; core depends on nothing but the standard library.
package core
