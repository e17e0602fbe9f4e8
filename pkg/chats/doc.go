// Package chats provides the provider-agnostic conversation model that the
// agent hands to a model adapter.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/physbot/pkg/chats/role]: conversation roles (system, user, assistant)
//   - [github.com/germanamz/physbot/pkg/chats/content]: content parts carried by a message
//   - [github.com/germanamz/physbot/pkg/chats/message]: a role, a sender and its content parts
//   - [github.com/germanamz/physbot/pkg/chats/chat]: ordered message container for one request
//
// No provider or API code lives here; adapters translate a chat into their
// own wire format.
package chats
