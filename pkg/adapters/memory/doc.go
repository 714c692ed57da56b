// Package memory provides in-process adapters for chatsim ports.
package memory
