// Package scenario holds the scripted content of the simulated assistant:
// the per-mode turn scripts, the integration-prompt composer and the canned
// replies. Every function here is pure.
package scenario
