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

package badger

import "github.com/stophobia/restai/storage"

// NewMemoryRepositories creates in-memory project and chat repositories for
// testing. Returns projectRepo, chatRepo, backend, and error.
// Caller must close the backend when done.
func NewMemoryRepositories() (storage.ProjectRepository, storage.ChatRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	return NewProjectRepository(backend), NewChatRepository(backend), backend, nil
}

// NewMemoryIndex creates an in-memory chunk store for testing.
// Caller must close the returned repository when done.
func NewMemoryIndex() (storage.IndexRepository, error) {
	return OpenIndexRepository("", true)
}
