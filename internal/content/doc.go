// Package content owns the active set of pages.
//
// A content tree holds site.yaml, pages/**/*.md and any static files the
// pages reference. Trees come from the embedded seed, a local directory, or
// a tar.gz bundle in S3 whose digest is published in an SSM parameter.
// Every tree is parsed into an immutable [Snapshot] and validated before
// the [Manager] swaps it in; readers never see a half-loaded site.
//
//   - [Loader] fetches, verifies and extracts S3 bundles
//   - [Watcher] polls SSM and swaps in new bundles
//   - [DirWatcher] reloads a local directory on change
package content
