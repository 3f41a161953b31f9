// Package diagnostic provides structured, location-attached errors and
// warnings for declaration expansion.
//
// Key capabilities:
//   - Misuse reports (macro attached to a non-record declaration)
//   - Ambiguous type reports with the fix as a hint
//   - Module/setup warnings for generated code
package diagnostic
