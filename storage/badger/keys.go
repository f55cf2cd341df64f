package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/stophobia/restai/core"
)

// Key prefixes for different data types
const (
	projectPrefix      = "proj"
	chatSessionPrefix  = "chat"
	chunkPrefix        = "chk"
	chunkIDSeq         = "chkseq"
	chunkSourcePrefix  = "chksrc"
	sourceRecordPrefix = "src"
)

// makeProjectKey generates a key for a project by name.
func makeProjectKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", projectPrefix, name))
}

// makeChatSessionKey generates a key for a chat session by id.
func makeChatSessionKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chatSessionPrefix, id))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkSourceKey generates a composite key for the source index.
// Format: prefix:sourceHash:chunkID
func makeChunkSourceKey(source string, chunkID core.ID) []byte {
	prefix := chunkSourcePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for source hash + 8 bytes for chunk ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(source)))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkSourceKey generates a partial key for per-source scans.
// Format: prefix:sourceHash
func makePartialChunkSourceKey(source string) []byte {
	prefix := chunkSourcePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for source hash
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(source)))
	return buf
}

// makeSourceRecordKey generates a key for the source catalog entry that maps
// a source hash back to its original string.
func makeSourceRecordKey(source string) []byte {
	return []byte(fmt.Sprintf("%s:%d", sourceRecordPrefix, core.IDFromContent(source)))
}
