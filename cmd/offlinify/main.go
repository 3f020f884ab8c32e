// Package main provides the entry point for the offlinify CLI.
//
// offlinify turns saved article pages into self-contained offline copies:
// every remote image is downloaded next to the page, and anything that
// would still reach the network (scripts, embeds, remote links and URL
// attributes) is removed.
//
// Usage:
//
//	offlinify clean <file-or-directory>
//	offlinify history [stem]
//
// See --help for all available options.
package main

// main is the entry point for offlinify.
func main() {
	Execute()
}
