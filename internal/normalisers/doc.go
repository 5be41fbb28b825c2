// Package normalisers provides implementations of the Normaliser interface.
// Each normaliser turns the raw bytes of a documentation file into a
// domain.Document ready for the chunking pipeline.
package normalisers
