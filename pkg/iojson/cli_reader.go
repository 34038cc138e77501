package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a T from the file named by its flag, or from piped
// stdin when the flag is unset.
type FileReader[T any] struct {
	Name  string
	Usage string

	value string
	stdin io.Reader
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	name := fr.Name
	if name == "" {
		name = "file"
	}
	usage := fr.Usage
	if usage == "" {
		usage = "path to JSON file (reads from stdin if not provided)"
	}
	return &cli.StringFlag{
		Name:        name,
		Usage:       usage,
		Destination: &fr.value,
	}
}

// Set reports whether the flag was given.
func (fr *FileReader[T]) Set() bool { return fr.value != "" }

func (fr *FileReader[T]) Read() (T, error) {
	var input T

	reader := fr.stdin
	switch {
	case fr.value != "":
		f, err := os.Open(fr.value)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	case reader == nil:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return input, fmt.Errorf("no input provided (stdin is a terminal); use --%s or pipe JSON input", fr.Flag().Name)
		}
		reader = os.Stdin
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
