// Package types defines the entity types, table names, filter helpers and
// standard errors shared by every layer of the world-state system.
package types
