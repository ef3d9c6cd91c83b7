// Package moderation holds the text primitives behind egregious-content
// detection: normalization of evasive spellings, expansion of a banned term
// into its exact-match variants and near misses, and the regular expressions
// that catch separator and substitution tricks. The LUT builder composes these
// offline; the matcher uses Normalize at runtime.
package moderation
