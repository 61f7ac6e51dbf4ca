// Package remote implements the narrow client contract to a remote
// repository: authenticate once, then push changeset batches.
//
// Two variants exist. The http client posts msgpack-encoded batches to a
// configured endpoint with bearer authentication and maps response codes
// onto the services error taxonomy (401/403 fatal, 408/429/5xx retryable,
// 207 partial with a rejected-path list). The mirror client replicates the
// tree into a local directory with atomic temp-and-rename writes; debug runs
// and end-to-end tests use it to observe pushes without a server.
//
// All failures carry a services marker so the cycle controller never has to
// inspect variant-specific error text.
package remote
