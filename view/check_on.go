//go:build dgview_boundscheck

package view

// Checked is true when element access verifies rank, bounds, memory space
// and allocation liveness on every call
const Checked = true
