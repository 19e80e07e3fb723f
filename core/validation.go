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
	"fmt"
	"strings"
)

// Validate checks a query against domain rules.
//
// Validation rules:
//   - QueryText must not be blank
//   - KnowledgeBase must not be blank
//   - TopK must be at least 1, and at most maxTopK when maxTopK > 0
//   - SemanticWeight must lie in [0, 1]
func (q KnowledgeBaseQuery) Validate(maxTopK int) error {
	if strings.TrimSpace(q.QueryText) == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.KnowledgeBase) == "" {
		return fmt.Errorf("%w: knowledge base is empty", ErrInvalidQuery)
	}
	if q.TopK < 1 {
		return fmt.Errorf("%w: top k %d is below 1", ErrInvalidQuery, q.TopK)
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		return fmt.Errorf("%w: top k %d exceeds %d", ErrInvalidQuery, q.TopK, maxTopK)
	}
	if q.SemanticWeight < 0 || q.SemanticWeight > 1 {
		return fmt.Errorf("%w: semantic weight %v outside [0, 1]", ErrInvalidQuery, q.SemanticWeight)
	}
	return nil
}

// Validate checks that a provider block carries what a chat backend needs.
// Model and BaseURL may be empty; the backend's defaults apply.
func (p ProviderConfig) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidProviderConfig)
	}
	if p.APIKey == "" {
		return fmt.Errorf("%w: %s: api key is empty", ErrInvalidProviderConfig, p.Key)
	}
	return nil
}

// ValidateSessionName checks that a session name is not blank.
func ValidateSessionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidSessionName
	}
	return nil
}
