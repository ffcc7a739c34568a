// Package filestore performs confined file operations beneath one base
// directory.
//
// Every operation resolves the client-supplied name through pathguard before
// touching the filesystem, and every filesystem failure is classified with an
// errcode.Code so callers can report it without inspecting OS errors.
//
// The store keeps no locks: two concurrent writes to the same name race at
// the filesystem's own granularity (last writer wins).
package filestore
