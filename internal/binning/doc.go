// Package binning assigns irregular point samples to grid cells and
// aggregates them into per-cell mean, variance and sample count.
//
// Assignment is nearest-neighbour: 1-D against the reference depth axis
// (out-of-range depths clamp to the first or last level), then 2-D
// against the assigned level's horizontal coordinate mesh. The sparse
// assignment operator maps each sample to at most one cell; a cell's
// count equals the number of samples mapping to it.
//
// Empty cells carry a negative sentinel in both mean and variance. The
// sentinel is distinguishable from data only because concentrations are
// non-negative in this domain; it cannot separate "no data" from a
// process that legitimately produces negative output.
package binning
