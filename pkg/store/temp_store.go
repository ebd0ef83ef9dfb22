package store

import (
	"fmt"
	"path/filepath"

	"src.kelp.sh/pkg/testutil"
)

// MustTempStore returns a Store backed by a database file in a temporary
// directory. The store is closed and the directory removed when the test
// finishes.
func MustTempStore(c testutil.Cleanuper) *Store {
	st, err := NewStore(filepath.Join(testutil.TempDir(c), "kelp.db"))
	if err != nil {
		panic(fmt.Sprintf("open temp store: %v", err))
	}
	c.Cleanup(func() { st.Close() })
	return st
}
