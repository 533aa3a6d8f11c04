// Package pkg provides shared utilities for the rtl2832 driver: the error
// vocabulary surfaced by all layers, component-tagged structured logging
// built on log/slog, and the bounded polling helper used for hardware waits.
package pkg
