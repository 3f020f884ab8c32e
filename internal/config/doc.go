// Package config provides configuration structures and utilities for offlinify.
// It defines the request, batch and report options, the XDG locations for
// the output root and the ledger database, and the optional .offlinify YAML
// file whose values sit between the built-in defaults and CLI flags.
package config
