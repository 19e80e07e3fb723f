// Package chat runs multi-session conversations against the active chat
// provider, optionally grounding replies in web search results.
//
// Sessions is the in-memory session registry. Orchestrator embeds it and adds
// SendMessage and Regenerate. A session moves from idle to generating for the
// duration of one turn; a second turn on the same session during that time
// fails with core.ErrGenerationInFlight and leaves the history unchanged.
package chat
