/*
Package ports defines the interfaces between the conversation engine and its
hosts.

# Key Interfaces

  - Clock: time source and timer factory for the session scheduler.
  - IntentSink: delivery of navigation intents to the external router.
  - Conversation: the operations a render surface may invoke on a session.
*/
package ports
