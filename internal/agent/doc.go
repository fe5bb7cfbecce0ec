// Package agent implements the conversational pipeline for FlightGPT:
// normalization of client-supplied chat messages into Genkit messages,
// per-request construction of a tool-augmented agent from dynamically
// discovered MCP flight tools, a non-streaming invocation pipeline, and a
// streaming observer that classifies the agent's execution trace into
// semantic steps for progressive display.
//
// Agents are built fresh for every request and torn down afterwards. No agent
// or MCP connection is shared across requests, which trades per-request setup
// latency for the absence of cross-request state.
package agent
