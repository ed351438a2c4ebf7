// Package persist writes and reads the option snapshot stored in a model.
//
// A snapshot is a protobuf wire message:
//
//	1: version string
//	2: model id (16 bytes)
//	3: option, repeated and sorted by name
//	   1: name  2: type  3: bool  4: sint64  5: double  6: string  7: repeated string
//
// Fields this version does not know are kept as raw bytes and written back
// unchanged, so that an older engine can rewrite a model produced by a newer
// one without losing anything.
package persist
