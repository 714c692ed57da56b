/*
Package chatsim simulates the first conversation with an AI marketing
assistant installed in a team chat workspace.

The assistant reveals a short scripted dialogue one turn at a time, with a
typing indicator between turns. The conversation then reacts to what the
user does: connecting integrations, choosing focus domains, typing free
text, or coming back from the sign-in flow with integrations already
connected.

# Concept

A session is a deterministic timeline. Every delayed effect (the next turn,
a typing indicator, a keyword reply) is queued on a per-session scheduler
and runs in order; nothing runs after the session is unmounted. Sessions
never navigate by themselves: buttons that lead elsewhere produce an Intent
for the host to follow.

# Usage

	sim := chatsim.New(chatsim.WithLogger(logger))
	defer sim.Close(ctx)

	conv, err := sim.StartFromQuery(ctx, "flow=onboarding")
	if err != nil {
		return err
	}
	intent, err := conv.Dispatch(ctx, "connect_meta")

Render surfaces read conv.Snapshot(), or subscribe through
sim.Sessions().Subscribe to be told of every change.

# Surfaces

  - pkg/adapters/http: JSON API with SSE diffs and a websocket.
  - pkg/adapters/mcp: tools for agents over stdio.
  - pkg/runner: an interactive terminal chat.
  - cmd/chatsim: the CLI that wires them together.
*/
package chatsim
