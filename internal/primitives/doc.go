// Package primitives holds the declarative, serializable description of a
// chart: states with their entry and exit hooks, and the transitions between
// them. It is the exchange format used for export and visualization; the
// engine itself runs on fixed tables and never reads a ChartConfig.
//
// Core invariants:
// - State IDs are unique among siblings
// - Every compound state names an initial child
// - Every transition source and target resolves to a state path
package primitives
