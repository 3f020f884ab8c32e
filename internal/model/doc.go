// Package model defines the data structures shared across offlinify.
//
// This package contains the following main types:
//   - Resource: one localized remote resource (fetched payload or placeholder)
//   - DocumentReport: the outcome of processing one saved article
//   - BatchSummary: the ordered reports of one batch run
//
// Models live in their own package because the pipeline, the ledger
// database and the report writers all need them, and keeping them here
// prevents import cycles between those packages.
//
// The models are serializable to JSON for report output and ledger storage.
package model
