// Copyright 2025 stophobia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"

	"github.com/stophobia/restai/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %v", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalProject serializes a Project to bytes.
func MarshalProject(project *core.Project) []byte {
	buf := make([]byte, core.ProjectMUS.Size(*project))
	core.ProjectMUS.Marshal(*project, buf)
	return buf
}

// UnmarshalProject deserializes a Project from bytes.
func UnmarshalProject(data []byte) (*core.Project, error) {
	project, _, err := core.ProjectMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: project: %v", ErrSerializationFailed, err)
	}
	return &project, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %v", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalChatSession serializes a ChatSession to bytes.
func MarshalChatSession(session *core.ChatSession) []byte {
	buf := make([]byte, core.ChatSessionMUS.Size(*session))
	core.ChatSessionMUS.Marshal(*session, buf)
	return buf
}

// UnmarshalChatSession deserializes a ChatSession from bytes.
func UnmarshalChatSession(data []byte) (*core.ChatSession, error) {
	session, _, err := core.ChatSessionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chat session: %v", ErrSerializationFailed, err)
	}
	return &session, nil
}
