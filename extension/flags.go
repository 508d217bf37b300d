// flags.go defines constants for all CLI flag names.
//
// Using constants instead of string literals prevents typos and enables
// compile-time checking when flag names are used in both Flags().Type()
// definitions and GetType() calls.
//
// Naming convention: Flag<PascalCaseName> where name matches the kebab-case
// CLI flag (e.g., "per-page" -> FlagPerPage).

package extension

// Flag name constants for CLI commands.
const (
	// Boolean flags

	FlagLocal = "local" // Use local config scope

	// String flags

	FlagExpand  = "expand"  // Relations to expand
	FlagFilter  = "filter"  // PocketBase filter expression
	FlagHTTP    = "http"    // Listen address for Streamable HTTP
	FlagSort    = "sort"    // Sort expression
	FlagSubject = "subject" // Email subject
	FlagTo      = "to"      // Recipient address

	// Integer flags

	FlagLimit   = "limit"    // Maximum results
	FlagPage    = "page"     // Page number (1-based)
	FlagPerPage = "per-page" // Page size
)
