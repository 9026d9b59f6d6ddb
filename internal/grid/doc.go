// Package grid owns the fixed latitude/longitude/depth target grid.
//
// Responsibilities: axis validation, coordinate mesh construction, the
// ocean-validity template, and dateline reindexing of the cyclic
// longitude axis. The grid is constructed once per run and shared
// read-only by every downstream component; transformations return new
// grid views and never mutate in place.
package grid
