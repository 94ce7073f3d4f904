// Package types defines the identifiers, field schemas, store interfaces and
// standard error types shared by the drills data layer.
package types
