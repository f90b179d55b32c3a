// Package archive opens downloaded feed bundles (zip) for random-access
// enumeration. Each entry exposes its internal path, its header line,
// and an on-demand byte stream; re-opening an entry yields a fresh
// stream rather than a rewind.
package archive
