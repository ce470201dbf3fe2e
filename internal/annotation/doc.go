// Package annotation reads call annotation tables and derives the selection tables used to
// cut positive and background clips.
//
// An annotation table is a delimited text file with a header row. Each row names an audio
// file, the call start in seconds and the call duration in seconds. Columns the package
// does not understand are carried through unchanged.
//
// Selections are fixed-length windows (filename, id, start, end, label). Standardize turns
// annotations into labeled selections, SelectPositives recenters them on a fixed length and
// RandomBackground draws non-overlapping background windows from the audio collection.
package annotation
