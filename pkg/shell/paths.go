package shell

import (
	"os"
	"path/filepath"

	"src.kelp.sh/pkg/env"
	"src.kelp.sh/pkg/fsutil"
)

// rcPath returns the path of rc.kelp, sourced when the shell starts in
// interactive mode. The KELP_RC environment variable overrides the default
// of kelp/rc.kelp under the XDG config home.
func rcPath() (string, error) {
	if rc := os.Getenv(env.KELP_RC); rc != "" {
		return rc, nil
	}
	if configHome := os.Getenv(env.XDG_CONFIG_HOME); configHome != "" {
		return filepath.Join(configHome, "kelp", "rc.kelp"), nil
	}
	home, err := fsutil.GetHome("")
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kelp", "rc.kelp"), nil
}

// dbPath returns the path of the history database, creating its parent
// directory if needed. The KELP_DB environment variable overrides the
// default of kelp/db.bolt under the XDG state home.
func dbPath() (string, error) {
	if db := os.Getenv(env.KELP_DB); db != "" {
		return db, nil
	}
	stateHome := os.Getenv(env.XDG_STATE_HOME)
	if stateHome == "" {
		home, err := fsutil.GetHome("")
		if err != nil {
			return "", err
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	db := filepath.Join(stateHome, "kelp", "db.bolt")
	if err := os.MkdirAll(filepath.Dir(db), 0o700); err != nil {
		return "", err
	}
	return db, nil
}
