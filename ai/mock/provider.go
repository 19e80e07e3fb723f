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


package mock

import (
	"sync"

	"github.com/poiesic/kbsearch/ai"
)

// MockModelSource is a test double for ai.ModelSource.
// It hands out a MockChatModel, or Err when set.
type MockModelSource struct {
	mu    sync.Mutex
	model *MockChatModel
	err   error
}

// NewMockModelSource creates a source serving a default MockChatModel.
func NewMockModelSource() *MockModelSource {
	return &MockModelSource{model: NewMockChatModel()}
}

// NewMockModelSourceWithModel creates a source serving model.
func NewMockModelSourceWithModel(model *MockChatModel) *MockModelSource {
	return &MockModelSource{model: model}
}

// ChatModel returns the mock model, or the configured error.
func (s *MockModelSource) ChatModel() (ai.ChatModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.model, nil
}

// SetError makes subsequent ChatModel calls fail with err. Nil clears it.
func (s *MockModelSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// GetMockChatModel returns the underlying mock model for test assertions.
func (s *MockModelSource) GetMockChatModel() *MockChatModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}
