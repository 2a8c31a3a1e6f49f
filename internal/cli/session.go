package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Current is the session the CLI acts on when no --session flag is given.
type Current struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// BaseDir returns the CLI state directory, honouring FSIM_HOME.
func BaseDir() (string, error) {
	dir := strings.TrimSpace(os.Getenv("FSIM_HOME"))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".fsim")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func currentPath() (string, error) {
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "current.json"), nil
}

func SaveCurrent(c Current) error {
	path, err := currentPath()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func LoadCurrent() (Current, error) {
	path, err := currentPath()
	if err != nil {
		return Current{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Current{}, fmt.Errorf("no session selected; run `fsim new` or `fsim use`")
		}
		return Current{}, err
	}
	var c Current
	if err := json.Unmarshal(body, &c); err != nil {
		return Current{}, err
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return Current{}, fmt.Errorf("no session id found in %s", path)
	}
	return c, nil
}

func ClearCurrent() error {
	path, err := currentPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
