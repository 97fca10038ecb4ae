// Package cli implements portfolio-admin, the operator command line for the
// portfolio site: applying migrations, creating accounts and listing
// projects without going through the web forms.
package cli
