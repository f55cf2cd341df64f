package core

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for all persisted record types. Hand-composed from the
// mus-go primitive serializers; timestamps are stored as Unix microseconds.
var (
	IDMUS          = idMUS{}
	ProjectMUS     = projectMUS{}
	ChunkMUS       = chunkMUS{}
	ChatTurnMUS    = chatTurnMUS{}
	ChatSessionMUS = chatSessionMUS{}
)

var (
	_ mus.Serializer[ID]          = IDMUS
	_ mus.Serializer[Project]     = ProjectMUS
	_ mus.Serializer[Chunk]       = ChunkMUS
	_ mus.Serializer[ChatTurn]    = ChatTurnMUS
	_ mus.Serializer[ChatSession] = ChatSessionMUS
)

var (
	stringSliceMUS  = ord.NewSliceSer[string](ord.String)
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
	turnSliceMUS    = ord.NewSliceSer[ChatTurn](ChatTurnMUS)
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type projectMUS struct{}

func (projectMUS) Marshal(v Project, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Embeddings, bs[n:])
	n += ord.String.Marshal(v.LLM, bs[n:])
	n += ord.String.Marshal(v.System, bs[n:])
	n += ord.Bool.Marshal(v.Sandboxed, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.CreatedAt, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (projectMUS) Unmarshal(bs []byte) (v Project, n int, err error) {
	var n1 int
	if v.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Embeddings, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.LLM, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.System, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Sandboxed, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (projectMUS) Size(v Project) (size int) {
	size = ord.String.Size(v.Name)
	size += ord.String.Size(v.Embeddings)
	size += ord.String.Size(v.LLM)
	size += ord.String.Size(v.System)
	size += ord.Bool.Size(v.Sandboxed)
	size += raw.TimeUnixMicro.Size(v.CreatedAt)
	size += raw.TimeUnixMicro.Size(v.UpdatedAt)
	return size
}

func (projectMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 4; i++ {
		if n1, err = ord.String.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	for i := 0; i < 2; i++ {
		if n1, err = raw.TimeUnixMicro.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += stringSliceMUS.Marshal(v.Keywords, bs[n:])
	n += float32SliceMUS.Marshal(v.Vector, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.InsertedAt, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Keywords, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InsertedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.Source)
	size += stringSliceMUS.Size(v.Keywords)
	size += float32SliceMUS.Size(v.Vector)
	size += raw.TimeUnixMicro.Size(v.InsertedAt)
	size += raw.TimeUnixMicro.Size(v.UpdatedAt)
	return size
}

func (chunkMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return n, err
	}
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = stringSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = float32SliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	for i := 0; i < 2; i++ {
		if n1, err = raw.TimeUnixMicro.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type chatTurnMUS struct{}

func (chatTurnMUS) Marshal(v ChatTurn, bs []byte) (n int) {
	n = ord.String.Marshal(v.Question, bs)
	n += ord.String.Marshal(v.Answer, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.Timestamp, bs[n:])
	return n
}

func (chatTurnMUS) Unmarshal(bs []byte) (v ChatTurn, n int, err error) {
	var n1 int
	if v.Question, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Answer, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.Timestamp, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (chatTurnMUS) Size(v ChatTurn) (size int) {
	size = ord.String.Size(v.Question)
	size += ord.String.Size(v.Answer)
	size += raw.TimeUnixMicro.Size(v.Timestamp)
	return size
}

func (chatTurnMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return n, err
	}
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	return n + n1, err
}

type chatSessionMUS struct{}

func (chatSessionMUS) Marshal(v ChatSession, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Project, bs[n:])
	n += turnSliceMUS.Marshal(v.Turns, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.CreatedAt, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (chatSessionMUS) Unmarshal(bs []byte) (v ChatSession, n int, err error) {
	var n1 int
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Project, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Turns, n1, err = turnSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (chatSessionMUS) Size(v ChatSession) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.Project)
	size += turnSliceMUS.Size(v.Turns)
	size += raw.TimeUnixMicro.Size(v.CreatedAt)
	size += raw.TimeUnixMicro.Size(v.UpdatedAt)
	return size
}

func (chatSessionMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return n, err
	}
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = turnSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	for i := 0; i < 2; i++ {
		if n1, err = raw.TimeUnixMicro.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}
