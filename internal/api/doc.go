// Package api is the operation surface of the tutorial core: a fixed set
// of named operations, each taking a mapping of named arguments and
// returning a structured value or a structured error.
//
// Dispatch is static - operation kinds map to handlers at construction,
// no reflection - and argument schemas are validated explicitly before a
// handler runs, so a mismatch is an immediate caller error rather than a
// logged-and-ignored warning.
//
// The outer boundary is total: any internal fault (including panics) is
// reported to the Reporter collaborator and converted into an error
// object carrying a diagnostic trace. No operation ever surfaces a raw
// transport-level failure for an internal error.
package api
