// Package domain provides the identifier model and record types of the node
// graph store.
//
// This package contains type definitions and small helpers only. All other
// internal packages import domain; domain imports nothing internal.
//
// Key constraints:
//   - Graph and node ids are UUIDs; type and attribute ids are codes
//   - Codes match CodePattern, language tags match LangPattern
//   - Dates are compared at millisecond precision everywhere
package domain
