// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
)

// Error categories. Every error produced by this module matches exactly one
// of these with errors.Is.
var (
	// ErrTransport indicates a remote service could not be reached or did not
	// answer in time.
	ErrTransport = errors.New("transport error")

	// ErrBackend indicates a remote service answered with a non-success status
	// or a body that could not be interpreted.
	ErrBackend = errors.New("backend error")

	// ErrConfiguration indicates missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrState indicates an operation was attempted in a state that does not
	// allow it.
	ErrState = errors.New("state error")
)

// Configuration errors
var (
	// ErrInvalidQuery indicates a KnowledgeBaseQuery failed validation.
	ErrInvalidQuery = fmt.Errorf("%w: invalid query", ErrConfiguration)

	// ErrInvalidProviderConfig indicates a ProviderConfig is incomplete.
	ErrInvalidProviderConfig = fmt.Errorf("%w: invalid provider config", ErrConfiguration)

	// ErrUnknownProvider indicates a provider key that is not registered.
	ErrUnknownProvider = fmt.Errorf("%w: unknown provider", ErrConfiguration)

	// ErrNoProviderConfigured indicates no provider is active.
	ErrNoProviderConfigured = fmt.Errorf("%w: no provider configured", ErrConfiguration)
)

// State errors
var (
	// ErrUnknownSession indicates a session name that does not exist.
	ErrUnknownSession = fmt.Errorf("%w: unknown session", ErrState)

	// ErrDuplicateSession indicates a session with the same name already exists.
	ErrDuplicateSession = fmt.Errorf("%w: session already exists", ErrState)

	// ErrInvalidSessionName indicates a blank session name.
	ErrInvalidSessionName = fmt.Errorf("%w: invalid session name", ErrState)

	// ErrProtectedSession indicates an attempt to delete the default session.
	ErrProtectedSession = fmt.Errorf("%w: default session cannot be deleted", ErrState)

	// ErrInvalidMessageIndex indicates a message index that does not address an
	// assistant reply preceded by a user message.
	ErrInvalidMessageIndex = fmt.Errorf("%w: invalid message index", ErrState)

	// ErrGenerationInFlight indicates a session already has a reply being generated.
	ErrGenerationInFlight = fmt.Errorf("%w: generation already in progress", ErrState)
)

// ErrEmbedding marks failures of the embedding service. It is always joined
// with ErrTransport or ErrBackend.
var ErrEmbedding = errors.New("embedding failed")
