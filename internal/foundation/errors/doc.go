// Package errors provides the classified error primitives used across Code Lens.
//
// Every failure surfaced by the ingestion pipeline is a ClassifiedError carrying a
// category that matches one of the pipeline's error kinds:
//   - CategoryMaterialization: clone, checkout or clone-directory filesystem failures
//   - CategoryConfig: a required policy or setting is missing or unreadable
//   - CategorySanitization: walk, removal or size-ceiling failures
//   - CategoryRendering: a tree listing subprocess exited non-zero
//   - CategoryStorage: repository or user persistence failures
//   - CategoryExternal: the mailer or the wiki service did not succeed
//
// Example usage:
//
//	err := errors.SanitizationError("file exceeds maximum size").
//		WithContext("path", path).
//		WithContext("limit_mb", limit).
//		Build()
package errors
