// Package chunker splits raw import content into portions small enough for a
// single completion request. Splitting prefers question boundaries, falls back
// to paragraph boundaries, and packs the resulting blocks greedily up to a
// target size measured in runes.
package chunker
