package logutil

import (
	"path/filepath"
	"strings"
	"testing"

	"src.kelp.sh/pkg/must"
	"src.kelp.sh/pkg/testutil"
)

func TestLogger(t *testing.T) {
	logger := GetLogger("[test] ")

	var sb strings.Builder
	SetOutput(&sb)
	logger.Println("out 1")
	if !strings.Contains(sb.String(), "[test] ") || !strings.Contains(sb.String(), "out 1") {
		t.Errorf("log output %q misses prefix or message", sb.String())
	}

	path := filepath.Join(testutil.TempDir(t), "log")
	must.OK(SetOutputFile(path))
	logger.Println("out 2")
	if content := must.ReadFileString(path); !strings.Contains(content, "out 2") {
		t.Errorf("log file content %q misses message", content)
	}

	must.OK(SetOutputFile(""))
	logger.Println("out 3")
	if content := must.ReadFileString(path); strings.Contains(content, "out 3") {
		t.Errorf("log file content %q contains message logged after redirection", content)
	}
}

func TestSetOutputFile_Error(t *testing.T) {
	dir := testutil.TempDir(t)
	if err := SetOutputFile(filepath.Join(dir, "bad", "log")); err == nil {
		t.Errorf("want error for unwritable path, got nil")
	}
}
