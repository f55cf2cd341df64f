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

import "errors"

// Service error taxonomy. These sentinels cross layer boundaries: the brain
// returns them and the HTTP boundary maps them to status codes.
var (
	// ErrNotFound indicates a project, file or chunk is absent.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a duplicate project name.
	ErrAlreadyExists = errors.New("project already exists")

	// ErrAlreadyIngested indicates the source is already present in the index.
	// Re-ingestion requires an explicit delete first.
	ErrAlreadyIngested = errors.New("source already ingested")

	// ErrUnsupportedSource indicates no loader matches the file extension or
	// fetch strategy.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrUnknownProvider indicates an embeddings or LLM provider name with no
	// registered factory.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrLoadFailed indicates a loader failure (I/O, network, parse).
	ErrLoadFailed = errors.New("load failed")

	// ErrGenerationFailed indicates an embedding or LLM provider failure.
	ErrGenerationFailed = errors.New("generation failed")
)

// Domain validation errors
var (
	// ErrInvalidProject indicates a Project failed validation.
	ErrInvalidProject = errors.New("invalid project")

	// ErrEmptyProjectName indicates the project Name field is empty.
	ErrEmptyProjectName = errors.New("project name cannot be empty")

	// ErrInvalidProjectName indicates the project name contains characters
	// that cannot be used in store and upload directory paths.
	ErrInvalidProjectName = errors.New("project name contains invalid characters")

	// ErrEmptyContent indicates the chunk Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySource indicates the chunk Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")
)
