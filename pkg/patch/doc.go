// Package patch parses and applies "*** Begin Patch" style patches.
//
// A patch is parsed against in-memory snapshots of the files it references (see
// FilesReferenced), producing a Patch whose update chunks have been located in the
// original content with a fuzzy, line-oriented matcher. Materialize turns a Patch into
// a Commit holding the final content of every touched path, and Apply hands that
// Commit to caller supplied write and delete functions. DiffSnapshots builds a Commit
// directly from two complete snapshots, and RenderPatch turns any Commit back into
// patch text.
//
// Filesystem and in-memory workspaces are provided for callers that do not need to
// supply their own storage.
package patch
