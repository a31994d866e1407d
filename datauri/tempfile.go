package datauri

import (
	"fmt"
	"os"
)

// AsTempFile decodes uri into a uniquely named file in the default temp
// directory and calls fn with its path. The file is removed when fn returns,
// whether it succeeds, fails or panics.
func AsTempFile(uri string, fn func(path string) error) error {
	return AsTempFileIn("", uri, fn)
}

// AsTempFileIn is AsTempFile with the file created in dir.
func AsTempFileIn(dir, uri string, fn func(path string) error) error {
	data, mimeType, err := Parse(uri)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "datauri-*"+Extension(mimeType))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %s: %w", path, err)
	}

	return fn(path)
}
