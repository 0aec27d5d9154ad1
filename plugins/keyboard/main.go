// Package main provides a keyboard plugin that types committed symbols into
// the focused application. It uses AppleScript on macOS and xdotool on
// Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Kind   string          `json:"kind"`
	Symbol string          `json:"symbol"`
	Word   string          `json:"word"`
	Text   string          `json:"text"`
	Config json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	// Lowercase types letters in lower case.
	Lowercase bool `json:"lowercase"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("failed to parse config: %w", err))
			return
		}
	}

	keys, err := keystrokes(req, cfg)
	if err != nil {
		writeResponse(err)
		return
	}
	writeResponse(typeText(runtime.GOOS, keys))
}

// keystrokes returns what to type for a commit: the letter itself, or the
// gesture word followed by a space.
func keystrokes(req Request, cfg Config) (string, error) {
	switch req.Kind {
	case "letter":
		if req.Symbol == "" {
			return "", fmt.Errorf("empty letter")
		}
		if cfg.Lowercase {
			return strings.ToLower(req.Symbol), nil
		}
		return req.Symbol, nil
	case "gesture":
		word := req.Word
		if word == "" {
			word = strings.ReplaceAll(req.Symbol, "_", " ")
		}
		return word + " ", nil
	}
	return "", fmt.Errorf("unknown kind: %s", req.Kind)
}

// command builds the OS command that types keys.
func command(goos, keys string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		escaped := strings.ReplaceAll(keys, `"`, `\"`)
		return exec.Command("osascript", "-e",
			fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escaped)), nil
	case "linux":
		return exec.Command("xdotool", "type", "--", keys), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", goos)
}

func typeText(goos, keys string) error {
	cmd, err := command(goos, keys)
	if err != nil {
		return err
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
