// Package identity implements Roundtable's identity foundation.
//
// It contains the user model, credential validation and normalization rules,
// and the credential store boundary with Postgres, SQLite, and in-memory
// implementations used by the HTTP auth layer.
package identity
