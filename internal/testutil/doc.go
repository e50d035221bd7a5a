// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing run contexts and inspecting transcripts.
// Not intended for production usage.
package testutil
