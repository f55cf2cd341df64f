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

import "errors"

var (
	// ErrNotFound indicates that the requested project, chunk, or chat
	// session is absent from the store.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates an insert under a key that already exists,
	// e.g. a project name collision.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrSerializationFailed indicates a stored record could not be decoded,
	// usually a corrupt or truncated value.
	ErrSerializationFailed = errors.New("serialization failed")
)
