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


// Package openai implements ai.ChatModel for OpenAI-compatible services.
//
// Every provider the registry knows (OpenAI, Qwen, DeepSeek, Moonshot and
// the rest) speaks the same chat-completion protocol, so one implementation
// built on langchaingo serves them all; only base URL, key and model differ.
//
// # Usage
//
//	model, err := openai.NewChatModel(core.ProviderConfig{
//	    Key:     "qwen",
//	    BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
//	    APIKey:  key,
//	    Model:   "qwen-plus",
//	})
//	if err != nil {
//	    return err
//	}
//	answer, err := model.Complete(ctx, []ai.Message{
//	    {Role: ai.RoleSystem, Content: "Answer briefly."},
//	    {Role: ai.RoleUser, Content: "What is a hybrid search?"},
//	}, ai.WithTemperature(0.7), ai.WithMaxTokens(1500))
package openai
