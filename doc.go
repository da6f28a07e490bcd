// Package savegdl implements a bidirectional codec for a binary save-state
// file format keyed by 32-bit name hashes, a structural diff/patch engine
// over two decoded stores, and a layout engine for the companion game-data
// list (GDL) metadata document describing the save file's binary shape.
package savegdl
