package utils

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	test.That(t, IsDir(dir), test.ShouldBeTrue)

	file := filepath.Join(dir, "frame.depth")
	test.That(t, os.WriteFile(file, []byte("1 2 3"), 0o600), test.ShouldBeNil)
	test.That(t, IsDir(file), test.ShouldBeFalse)
	test.That(t, IsDir(filepath.Join(dir, "missing")), test.ShouldBeFalse)

	link := filepath.Join(dir, "link")
	test.That(t, os.Symlink(dir, link), test.ShouldBeNil)
	test.That(t, IsDir(link), test.ShouldBeFalse)
}
