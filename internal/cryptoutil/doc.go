// Package cryptoutil verifies content bundle integrity: constant-time hash
// comparison and detached signatures checked against a KMS-held key.
package cryptoutil
