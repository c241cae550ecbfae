package ports

// FileSystem is the file access used by the debug sink, the directory frame
// source, the summary writer and the convert command.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces a file's contents, creating parent directories.
	// Readers never observe a partially written file, so a directory
	// watcher sees either the old frame or the new one.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	// Exists reports whether path names an existing file or directory.
	Exists(path string) (bool, error)

	// ReadDir lists the regular files in a directory, sorted by name.
	// Subdirectories are omitted.
	ReadDir(path string) ([]string, error)
}
