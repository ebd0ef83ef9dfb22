//go:build unix

package progtest

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"

	"src.kelp.sh/pkg/prog"
	"src.kelp.sh/pkg/testutil"
)

// InteractiveFixture drives a program whose standard files are all connected
// to the slave end of a pseudo-terminal.
type InteractiveFixture struct {
	t      *testing.T
	ptmx   *os.File
	exit   <-chan int
	exited bool

	mu  sync.Mutex
	out []byte
}

// Interactive starts p in a goroutine, with all three standard files
// connected to the slave end of a new pseudo-terminal, and returns a fixture
// that drives the program from the master end. A cleanup function closes the
// terminal and waits for the program to exit.
func Interactive(t *testing.T, p prog.Program, args ...string) *InteractiveFixture {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("cannot open pty: %v", err)
	}
	exit := make(chan int, 1)
	go func() {
		exit <- prog.Run([3]*os.File{tty, tty, tty}, append([]string{"kelp"}, args...), p)
		tty.Close()
	}()
	f := &InteractiveFixture{t: t, ptmx: ptmx, exit: exit}
	go f.gather()
	t.Cleanup(func() {
		ptmx.Close()
		if !f.exited {
			select {
			case <-exit:
			case <-time.After(testutil.Scaled(5 * time.Second)):
				t.Error("program did not exit after its terminal was closed")
			}
		}
	})
	return f
}

// Reads terminal output into f.out until the master end is closed.
func (f *InteractiveFixture) gather() {
	buf := make([]byte, 4096)
	for {
		n, err := f.ptmx.Read(buf)
		if n > 0 {
			f.mu.Lock()
			f.out = append(f.out, buf[:n]...)
			f.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Input writes s to the terminal, as if typed by a user. Use "\n" to end a
// line and "\x04" for end-of-file.
func (f *InteractiveFixture) Input(s string) {
	f.t.Helper()
	if _, err := f.ptmx.WriteString(s); err != nil {
		f.t.Fatalf("write to pty: %v", err)
	}
}

// WaitForOutput waits until the accumulated terminal output contains s,
// failing the test after a timeout. The terminal echoes input and rewrites
// "\n" to "\r\n", so s should be a short substring away from line ends.
func (f *InteractiveFixture) WaitForOutput(s string) {
	f.t.Helper()
	deadline := time.Now().Add(testutil.Scaled(5 * time.Second))
	for time.Now().Before(deadline) {
		f.mu.Lock()
		found := strings.Contains(string(f.out), s)
		f.mu.Unlock()
		if found {
			return
		}
		time.Sleep(testutil.Scaled(time.Millisecond))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t.Fatalf("timed out waiting for %q in terminal output; got %q", s, f.out)
}

// WaitExit sends end-of-file to the terminal and returns the program's exit
// status.
func (f *InteractiveFixture) WaitExit() int {
	f.t.Helper()
	f.Input("\x04")
	select {
	case code := <-f.exit:
		f.exited = true
		return code
	case <-time.After(testutil.Scaled(5 * time.Second)):
		f.t.Fatal("timed out waiting for the program to exit")
		return -1
	}
}
