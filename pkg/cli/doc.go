// Package cli holds helpers shared by the thinout commands: output
// formatters (text, JSON and CSV), terminal styles, anchor parsing, signal
// handling and exit codes.
package cli
