// Package section builds per-track swath masks on the grid's horizontal
// plane and extracts gap-filled cross-sections from gridded fields.
package section
