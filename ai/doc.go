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


// Package ai provides abstractions for the AI services used in RestAI.
//
// It defines the provider interfaces the rest of the system depends on:
//
//   - Embedder: generates vector embeddings from text
//   - LLM: generates answer text from a prompt and optional persona
//   - KeywordExtractor: derives keyword metadata from text (pure, never fails)
//
// Providers are selected by configuration name through a Registry, a
// read-only mapping from name to factory resolved at startup. Projects store
// only provider names; the brain resolves them to live instances when a
// project runtime is constructed.
//
// Implementation sub-packages:
//
//   - ai/openai: production providers for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles
//
// Production constructors (openai.NewEmbedder, openai.NewLLM) return
// interface types to keep callers decoupled from concrete clients; mock
// constructors return concrete types so tests can inject behavior and assert
// call counts.
package ai
