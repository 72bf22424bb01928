// Package core defines the shared language of the driftnet system.
//
// This package contains:
//   - Schema entities (Schema, SourceSchema, Ref)
//   - Drift records produced by the comparator (Drift, DriftKind)
//   - The error taxonomy shared by parser, extractor and persistence
//     (ParseError, SerializationError)
//   - Database adapter contracts used to observe live schemas
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
