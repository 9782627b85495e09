// Package sift turns loose topical input into deduplicated, canonicalized
// content records. A run normalizes keywords and notes, expands them into
// search queries, gathers candidate URLs from search providers, then
// fetches, extracts and persists each candidate while recording every
// decision as an audit event.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, redis/, goquery/).
package sift
