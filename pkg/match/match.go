// Package match locates a target text inside an OCR token index.
//
// Score is a handwritten, token structural heuristic rather than an edit
// distance: it normalizes both strings three ways and walks a fixed ladder of
// rules from exact equality down to word overlap, returning a score between
// 0 and 100. Anything below AcceptThreshold is not a match.
//
// Resolver runs Score over the index in passes (lines, windows of
// consecutive lines, single words, reconstructed word phrases) and keeps the
// single best span. Locate adds the caller side flow: "Key: Value" targets,
// progressively relaxed queries and a lenient per word scan.
package match
