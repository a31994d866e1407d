// Package datauri encodes binary payloads as self-describing data URIs
// ("data:<mime>;base64,<payload>") and materializes them as temporary files
// for consumers that need a real filesystem path.
package datauri

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const scheme = "data:"

var uriPattern = regexp.MustCompile(`^data:(?P<mime>.*?);base64,(?P<payload>.*)$`)

// FormatError is returned when a string is not a well-formed base64 data URI.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	excerpt := e.Input
	if len(excerpt) > 40 {
		excerpt = excerpt[:40] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid data URI %q: %v", excerpt, e.Err)
	}
	return fmt.Sprintf("invalid data URI %q", excerpt)
}

func (e *FormatError) Unwrap() error { return e.Err }

// FromBytes encodes data with the given MIME type.
func FromBytes(data []byte, mimeType string) string {
	return scheme + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FromFile reads path and encodes it. When mimeType is empty the type is
// sniffed from the file contents.
func FromFile(path string, mimeType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if mimeType == "" {
		mimeType = baseType(mimetype.Detect(data).String())
	}
	return FromBytes(data, mimeType), nil
}

// IsDataURI reports whether s carries the data URI scheme. It does not
// validate the rest of the string.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, scheme)
}

// Parse decodes a data URI into its payload and MIME type. The MIME type is
// the part before any parameters, trimmed of whitespace.
func Parse(uri string) ([]byte, string, error) {
	m := uriPattern.FindStringSubmatch(uri)
	if m == nil {
		return nil, "", &FormatError{Input: uri}
	}
	data, err := base64.StdEncoding.DecodeString(m[uriPattern.SubexpIndex("payload")])
	if err != nil {
		return nil, "", &FormatError{Input: uri, Err: err}
	}
	return data, baseType(m[uriPattern.SubexpIndex("mime")]), nil
}

// MIMEType returns only the MIME type of uri without decoding the payload.
func MIMEType(uri string) (string, error) {
	m := uriPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", &FormatError{Input: uri}
	}
	return baseType(m[uriPattern.SubexpIndex("mime")]), nil
}

// Extension returns the conventional file extension (with leading dot) for
// mimeType, or "" when the type is unknown.
func Extension(mimeType string) string {
	if mt := mimetype.Lookup(mimeType); mt != nil {
		return mt.Extension()
	}
	return ""
}

func baseType(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(mimeType)
}
