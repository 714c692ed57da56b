/*
Package session keeps the live conversations of a process.

Each mounted session owns one engine. The Manager hands out the
ports.Conversation surface for a session id, fans snapshot changes out to
subscribers and tears sessions down on unmount. Nothing survives an unmount
or a process restart.
*/
package session
