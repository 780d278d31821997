package redman

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/idelchi/redman/internal/fileutil"
)

const (
	// EntryAlgorithm names the key file entry holding the algorithm name.
	EntryAlgorithm = "algorithm"

	keyFileHeader = "# redman key file"
	keyFilePerm   = 0o600
)

// malformedKeyFileError reports invalid key file syntax. It matches both
// ErrMalformedKeyFile and ErrMalformedKey.
type malformedKeyFileError struct {
	path   string
	detail string
}

func (e *malformedKeyFileError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedKeyFile, e.path, e.detail)
}

func (e *malformedKeyFileError) Is(target error) bool {
	return target == ErrMalformedKeyFile || target == ErrMalformedKey
}

// isJSONKeyFile reports whether path selects the JSONC key file format.
func isJSONKeyFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	default:
		return false
	}
}

// readKeyFile parses the key file at path into an algorithm name and raw components.
func readKeyFile(path string) (string, map[string][]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", nil, keyFileError(path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", nil, keyFileError(path, err)
	}

	if !info.Mode().IsRegular() {
		return "", nil, &malformedKeyFileError{path: path, detail: "not a regular file"}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, keyFileError(path, err)
	}

	var entries map[string]string

	if isJSONKeyFile(path) {
		entries, err = parseJSONKeyFile(path, data)
	} else {
		entries, err = parseLineKeyFile(path, data)
	}

	if err != nil {
		return "", nil, err
	}

	return decodeEntries(path, entries)
}

// keyFileError classifies file system errors.
func keyFileError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %q", ErrKeyFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %q", ErrKeyFilePermission, path)
	default:
		return fmt.Errorf("accessing key file %q: %w", path, err)
	}
}

// parseLineKeyFile parses "name=value" lines. Blank lines and '#' comments are skipped.
func parseLineKeyFile(path string, data []byte) (map[string]string, error) {
	entries := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &malformedKeyFileError{path: path, detail: fmt.Sprintf("line %d: missing '='", lineNo)}
		}

		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &malformedKeyFileError{path: path, detail: fmt.Sprintf("line %d: empty name", lineNo)}
		}

		if _, dup := entries[name]; dup {
			return nil, &malformedKeyFileError{path: path, detail: fmt.Sprintf("line %d: duplicate entry %q", lineNo, name)}
		}

		entries[name] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, &malformedKeyFileError{path: path, detail: err.Error()}
	}

	return entries, nil
}

// parseJSONKeyFile parses a JSON object, allowing comments and trailing commas.
func parseJSONKeyFile(path string, data []byte) (map[string]string, error) {
	var entries map[string]string

	if err := json.Unmarshal(jsonc.ToJSONInPlace(data), &entries); err != nil {
		return nil, &malformedKeyFileError{path: path, detail: err.Error()}
	}

	if entries == nil {
		return nil, &malformedKeyFileError{path: path, detail: "expected a JSON object"}
	}

	return entries, nil
}

// decodeEntries splits out the algorithm entry and base64-decodes the components.
func decodeEntries(path string, entries map[string]string) (string, map[string][]byte, error) {
	name, ok := entries[EntryAlgorithm]
	if !ok || name == "" {
		return "", nil, &malformedKeyFileError{path: path, detail: fmt.Sprintf("missing %q entry", EntryAlgorithm)}
	}

	components := make(map[string][]byte, len(entries)-1)

	for comp, value := range entries {
		if comp == EntryAlgorithm {
			continue
		}

		decoded, err := base64.StdEncoding.Strict().DecodeString(value)
		if err != nil {
			return "", nil, &malformedKeyFileError{path: path, detail: fmt.Sprintf("entry %q: %v", comp, err)}
		}

		components[comp] = decoded
	}

	return name, components, nil
}

// encodeKeyFile renders the key file contents in the format selected by path.
// Entries are written in canonical order: algorithm first, then components sorted by name.
func encodeKeyFile(path, name string, components map[string][]byte) ([]byte, error) {
	if isJSONKeyFile(path) {
		entries := make(map[string]string, len(components)+1)
		entries[EntryAlgorithm] = name

		for comp, value := range components {
			entries[comp] = base64.StdEncoding.EncodeToString(value)
		}

		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding key file: %w", err)
		}

		return append(data, '\n'), nil
	}

	var buf bytes.Buffer

	fmt.Fprintln(&buf, keyFileHeader)
	fmt.Fprintf(&buf, "%s=%s\n", EntryAlgorithm, name)

	for _, comp := range sortedNames(components) {
		fmt.Fprintf(&buf, "%s=%s\n", comp, base64.StdEncoding.EncodeToString(components[comp]))
	}

	return buf.Bytes(), nil
}

// writeKeyFile atomically writes the key file at path.
func writeKeyFile(path, name string, components map[string][]byte) error {
	data, err := encodeKeyFile(path, name, components)
	if err != nil {
		return err
	}

	if err := fileutil.WriteAtomic(path, data, keyFilePerm); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %q: %w", ErrKeyFilePermission, path, err)
		}

		return fmt.Errorf("writing key file %q: %w", path, err)
	}

	return nil
}
