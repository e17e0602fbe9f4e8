// Package engine is the composition root of physbot. It builds the keyword
// gate, the provider completer and the agent once from a Config, and exposes
// Handle, the single operation every frontend (terminal UI, one-shot CLI,
// HTTP, MCP) calls with the user's raw text.
package engine
