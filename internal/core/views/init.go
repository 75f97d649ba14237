// Package views registers all view definitions with the core registry.
// Import this package to ensure all views are registered.
package views

// This file exists to provide a single import point.
// Each view file uses init() to register its views.

// Keys of the built-in views.
const (
	TicketsKey = "tickets"
	PeopleKey  = "people"
)
