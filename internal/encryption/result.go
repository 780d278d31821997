package encryption

// Result is the outcome of sealing or opening one file.
type Result struct {
	// Input is the path that was read
	Input string

	// Output is the path that was written, empty on failure
	Output string

	// OutputSize is the size of Output in bytes
	OutputSize int64

	// Error is set when the file could not be processed
	Error error
}

// Failed reports whether processing the file failed.
func (r Result) Failed() bool {
	return r.Error != nil
}
