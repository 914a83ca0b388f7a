package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AppState represents the persistent application state.
type AppState struct {
	LastDeviceID   string `json:"last_device_id,omitempty"`
	LastDeviceName string `json:"last_device_name,omitempty"`
	LastSession    string `json:"last_session,omitempty"`
}

// StateFile manages the application state file.
type StateFile struct {
	path  string
	state AppState
}

// NewStateFile creates a state file manager, loading any existing state.
func NewStateFile(path string) (*StateFile, error) {
	sf := &StateFile{path: path}

	if err := sf.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return sf, nil
}

// NewDefaultStateFile creates a state file manager with the default path.
func NewDefaultStateFile() (*StateFile, error) {
	return NewStateFile(DefaultStatePath())
}

// Load loads the state from disk.
func (sf *StateFile) Load() error {
	data, err := os.ReadFile(sf.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &sf.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	return nil
}

// Save saves the state to disk.
func (sf *StateFile) Save() error {
	data, err := json.MarshalIndent(sf.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(sf.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(sf.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// State returns the current state.
func (sf *StateFile) State() AppState {
	return sf.state
}

// SetLastDevice sets the last connected device.
func (sf *StateFile) SetLastDevice(deviceID, deviceName string) error {
	sf.state.LastDeviceID = deviceID
	sf.state.LastDeviceName = deviceName
	return sf.Save()
}

// SetLastSession remembers the session used last.
func (sf *StateFile) SetLastSession(name string) error {
	sf.state.LastSession = name
	return sf.Save()
}
