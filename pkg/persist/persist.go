// Package persist saves and loads whole-engine state snapshots. It is a
// consumer of the engine's snapshot/restore hooks, not part of the core:
// there is no WAL and no incremental write, just a single JSON state file.
package persist

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/icehousedb/icehouse/pkg/engine"
	log "github.com/sirupsen/logrus"
)

// Save captures the engine state and writes it to path. The file is written
// to a temp sibling first and renamed into place so a crash mid-write never
// leaves a truncated state file.
func Save(path string, e *engine.Engine) error {
	log.WithFields(log.Fields{"path": path}).Info("persist::persist::Save; started")

	state := e.StateSnapshot()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "bytes": len(data)}).Info("persist::persist::Save; done")
	return nil
}

// Load reads a state file and restores the engine from it.
func Load(path string, e *engine.Engine) error {
	log.WithFields(log.Fields{"path": path}).Info("persist::persist::Load; started")

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	state := &engine.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return err
	}
	if err := e.RestoreState(state); err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "tables": len(state.Tables)}).Info("persist::persist::Load; done")
	return nil
}

// Exists reports whether a state file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(filepath.Clean(path))
	return err == nil && !info.IsDir()
}
