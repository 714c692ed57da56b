/*
Package domain contains the core models of the simulated chat surface.

It is kept pure and free of I/O: no timers, no logging, no transport.

# Key Entities

  - Message / Block / Element: a conversation entry and its interactive blocks.
  - Conversation: the ordered history, with Supersede for targeted rewrites.
  - Catalog: the fixed integration and focus-domain data, injected at construction.
  - Command: block actions decoded once into a closed variant set.
  - Intent: an outbound navigation request for the external router.
  - SessionState / Snapshot: the per-mount state and its renderable copy.
*/
package domain
