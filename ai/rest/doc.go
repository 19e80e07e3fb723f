// Package rest implements ai.Embedder for plain REST embedding services.
//
// The service accepts
//
//	POST <url>
//	Authorization: Bearer <api key>
//	{"texts": ["..."], "model": "<model>"}
//
// and answers with {"data": [{"embedding": [...]}, ...]}, one entry per text.
// Transport is go-resty; batching and newline handling come from the
// langchaingo embeddings package.
//
// Failures match core.ErrEmbedding and exactly one of core.ErrTransport or
// core.ErrBackend.
package rest
