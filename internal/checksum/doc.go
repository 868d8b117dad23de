// Package checksum fingerprints SQL statement text.
//
// Two digests are offered:
//
//   - Raw: SHA-256 of the exact bytes.
//   - Normalized: SHA-256 after dropping comments, collapsing whitespace and
//     lower-casing everything outside string literals.
//
// The statement catalog combines normalized digests of every statement into a
// single fingerprint that is printed by `dwhetl plan` and logged at the start
// of each run, so two runs can be matched to the same schema definition even
// when the .sql files were reformatted.
//
//	calc := checksum.New()
//	id := calc.Combine([]byte("create/01_staging_events"), stmtText)
//
// SHA256 is safe for concurrent use.
package checksum
