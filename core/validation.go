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

package core

import (
	"fmt"
	"strings"
)

// projectNameForbidden lists characters that would escape or mangle the
// per-project store and upload directory paths derived from the name.
const projectNameForbidden = `/\:*?"<>|`

// ValidateProject validates a Project according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Name must be usable as a directory name (no path separators etc.)
//
// NOT validated (resolved against the provider registries by the brain):
//   - Embeddings and LLM provider names
func ValidateProject(project *Project) error {
	if project == nil {
		return fmt.Errorf("%w: project is nil", ErrInvalidProject)
	}

	if project.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProject, ErrEmptyProjectName)
	}

	if strings.ContainsAny(project.Name, projectNameForbidden) ||
		project.Name == "." || project.Name == ".." {
		return fmt.Errorf("%w: %w", ErrInvalidProject, ErrInvalidProjectName)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Source must not be empty
//
// NOT validated (populated by the index):
//   - Vector (empty until embedded)
//   - Keywords (the extractor may legitimately produce none)
//   - ID (0 is valid before the store assigns one)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrEmptyContent)
	}

	if chunk.Content == "" {
		return ErrEmptyContent
	}

	if chunk.Source == "" {
		return ErrEmptySource
	}

	return nil
}
