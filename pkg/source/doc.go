// Package source connects the thinning engine to files on disk.
//
// A FileSource lists the files of a directory and turns them into items
// dated by their modification time. Weighers derived from file size or name
// patterns make some files more expensive to remove than others, and a
// Remover deletes the files the engine picked.
package source
