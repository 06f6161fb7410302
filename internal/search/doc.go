// Package search ranks node kinds against a typed pattern.
//
// Scoring is a subsequence match: every pattern character must appear in
// order in the candidate, case-insensitively. Matches earn points (more for
// upper-case pattern letters, separators and runs of consecutive matches);
// skipped characters cost points, the first few skipped characters more so.
//
// Large symbol sets are scored by a Job on its own goroutine. The job shares
// nothing with its caller but an append-only SyncList of results and a
// cancel flag that it checks on every iteration.
package search
