package fsutil

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"src.kelp.sh/pkg/env"
)

// GetHome finds the home directory of a specified user. When given an empty
// string, it finds the home directory of the current user, preferring the
// HOME environment variable over the user database.
func GetHome(uname string) (string, error) {
	if uname == "" {
		if home := os.Getenv(env.HOME); home != "" {
			return strings.TrimRight(home, "/"), nil
		}
	}
	var u *user.User
	var err error
	if uname == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(uname)
	}
	if err != nil {
		return "", fmt.Errorf("can't resolve ~%s: %w", uname, err)
	}
	return strings.TrimRight(u.HomeDir, "/"), nil
}
