// Package adapter implements one harvest.Adapter per court family. Each
// adapter owns the request cascade and HTML extraction for its portal;
// everything that reaches the engine is already normalized.
package adapter
