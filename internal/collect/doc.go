// Package collect enumerates the saved HTML files of an input tree.
package collect
