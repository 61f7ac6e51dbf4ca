// Package push is the sync engine: it turns changesets into remote batches
// and owns the remote session.
//
// Authentication happens once per process lifetime. A session that expires
// mid-run triggers exactly one re-authentication; a rejection of fresh
// credentials is fatal and propagates as services.ErrAuthFailed so the
// daemon stops rather than hammering a remote that will never accept it.
//
// Sync never drops a changeset entry silently. Every path ends up accepted,
// rejected, or skipped, and the Result carries the accepted subset as
// concrete baseline mutations for the cycle controller to commit.
package push
