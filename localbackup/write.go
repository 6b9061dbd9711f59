package localbackup

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// createDir makes a directory and its parents, tolerating prior existence.
func createDir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("localbackup: couldn't create directory %s: %w", dir, err)
	}
	return nil
}

// writeFile writes UTF-8 content to abs.  Failures here are fatal to the run.
func writeFile(abs string, contents string) error {
	f, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("localbackup: couldn't create file %s: %w", abs, err)
	}

	defer f.Close()
	if _, err = f.WriteString(contents); err != nil {
		return fmt.Errorf("localbackup: couldn't write to file %s: %w", abs, err)
	}

	return nil
}

// moveFile relocates a staged download into its final home.  Rename first;
// fall back to copy-and-remove when staging lives on another filesystem.
func moveFile(src string, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localbackup: couldn't replace %s: %w", dst, err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("localbackup: couldn't open staged file %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("localbackup: couldn't create file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("localbackup: couldn't copy %s to %s: %w", src, dst, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("localbackup: couldn't remove staged file %s: %w", src, err)
	}

	return nil
}
