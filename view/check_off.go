//go:build !dgview_boundscheck

package view

// Checked is true when element access verifies rank, bounds, memory space
// and allocation liveness on every call. Build with -tags dgview_boundscheck
// to enable it.
const Checked = false
