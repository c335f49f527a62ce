// Package catalog is the template registry: the fixed set of invitation
// layouts, their color schemes, typography and declared fields.
//
// # Loading
//
// The catalog is declarative TOML data. [LoadDefault] reads the copy embedded
// in the binary; [LoadFile] reads an operator-supplied file with the same
// schema. Both validate every template before returning, so a malformed
// definition stops the process at startup instead of failing a request:
//
//	reg, err := catalog.LoadDefault()
//	if err != nil {
//	    log.Fatal(err) // CATALOG_INVALID with every problem listed
//	}
//	t, err := reg.Get("goan-beach-bliss")
//
// # Geometry
//
// Element and QR positions are percentages of the canvas size in [0, 100],
// measured from the top-left corner. An element's y is the baseline of its
// first line. Max widths are percentages of the canvas width.
//
// # Concurrency
//
// A [Registry] and its templates are never mutated after loading; any number
// of goroutines may read them without locking.
package catalog
