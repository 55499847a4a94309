// Package workspace manages the clone root: the directory under which every
// repository is materialized into a subdirectory named after its id.
//
// The ingestion pipeline never deletes a clone after handing it off. Clones
// that are no longer needed are reclaimed by the Janitor, which periodically
// sweeps directories whose last modification is older than the configured
// retention.
package workspace
