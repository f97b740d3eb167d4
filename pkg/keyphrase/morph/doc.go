// Package morph provides the morphological analysis used by keyword
// extraction: reducing a word to a base form and tagging its part of speech.
//
// Analyzer is the capability the ingestion pipeline consumes. Snowball is the
// bundled implementation; it combines an optional lemma lexicon loaded from
// YAML, the snowball stemmer, and suffix heuristics for part-of-speech tags.
// Identity is the null object used when no analyzer is configured.
package morph
