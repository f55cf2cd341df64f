// Package storage defines the persistence contracts for the service:
// project metadata, chat sessions, and the per-project chunk stores.
//
// Repositories are small, focused interfaces so backends can be swapped
// in tests. The storage/badger subpackage provides the production
// implementation. Records are serialized with the MUS format via the
// serializers defined in the core package.
package storage
