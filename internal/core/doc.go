// Package core provides the query-rule engine shared by every table view.
//
// This package is the heart of gridview, containing the rule vocabulary and
// the in-memory executor independent of any UI or transport layer. It can be
// used by web handlers, the terminal browser, CLI tools, or tests without
// modification.
//
// # Rule Model
//
// A view is described by its [Columns]. Its canonical state is a [State]:
// a 1-based page, an ordered list of [FilterRule] (combined with AND) and an
// ordered list of [SortRule] forming a tie-break chain.
//
// Rules that do not name a known column, or filter rules without a value,
// are malformed. They are never reported as errors; [WellFormedFilters],
// [WellFormedSorters] and [Sanitize] drop them at every boundary:
//
//	st = core.Sanitize(st, view.Columns)
//
// Pages are clamped with [ClampPage], never rejected.
//
// # Executors
//
// Every backend implements [Executor]. The in-memory one is
// [ExecuteLocal] (wrapped by [LocalExecutor]):
//
//  1. Filter: field values are coerced with [Text] and compared with
//     Unicode case folding (equals, contains, startsWith)
//  2. Sort: stable multi-key sort using native ordering per column [Kind]
//  3. Paginate: the page is clamped against the filtered total, then sliced
//
// Remote executors live in the odata package and share the same [Result].
//
// # View Registry
//
// Views are registered at init time using [Register]:
//
//	core.Register(core.ViewDefinition{
//	    Info:    core.ViewInfo{Key: "tickets", Group: "Support", Label: "Tickets"},
//	    Columns: core.Columns{{ID: "id", Caption: "ID", Kind: core.KindNumber, Sortable: true}},
//	})
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - REM001-REM005: Remote data service errors
//   - QRY001-QRY003: OData query string errors
//   - TBL001: Unknown view
//   - TKT001-TKT003: Ticket store errors
package core
