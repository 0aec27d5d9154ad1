// Package plugin forwards committed symbols to external executables. A
// plugin is a directory holding a plugin.json manifest and an executable
// that reads one JSON Request on stdin and answers with one JSON Response.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the commit kinds it wants.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Kinds lists the commit kinds delivered to the plugin, "letter" and/or
	// "gesture". Empty means both.
	Kinds  []string        `json:"kinds,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Request is one committed symbol.
type Request struct {
	Kind       string          `json:"kind"`
	Symbol     string          `json:"symbol"`
	Word       string          `json:"word,omitempty"`
	Confidence float64         `json:"confidence"`
	Text       string          `json:"text"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Wants reports whether the plugin subscribes to commits of kind.
func (p *Plugin) Wants(kind string) bool {
	if len(p.Manifest.Kinds) == 0 {
		return true
	}
	for _, k := range p.Manifest.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
