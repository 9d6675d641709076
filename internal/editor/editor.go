// Package editor opens a document in the user's editor and reads it back.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/BurntSushi/toml"
	shellquote "github.com/kballard/go-shellquote"
)

// DefaultEditor is used when neither $VISUAL nor $EDITOR is set.
const DefaultEditor = "vi"

// ErrUnchanged is returned when the document comes back untouched.
var ErrUnchanged = errors.New("edit cancelled: no changes")

// Command returns the editor argv from $VISUAL or $EDITOR.
// The variable may carry arguments, split with shell quoting rules.
func Command() ([]string, error) {
	value := os.Getenv("VISUAL")
	if value == "" {
		value = os.Getenv("EDITOR")
	}
	if value == "" {
		return []string{DefaultEditor}, nil
	}
	argv, err := shellquote.Split(value)
	if err != nil {
		return nil, fmt.Errorf("invalid editor command %q: %w", value, err)
	}
	if len(argv) == 0 {
		return []string{DefaultEditor}, nil
	}
	return argv, nil
}

// Edit writes content to a temporary file with the given pattern, runs the
// editor on it and returns the saved content.
func Edit(ctx context.Context, content []byte, pattern string) ([]byte, error) {
	argv, err := Command()
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor %s failed: %w", argv[0], err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	if bytes.Equal(edited, content) {
		return nil, ErrUnchanged
	}
	return edited, nil
}

// EditTOML encodes v as TOML, lets the user edit it and decodes the result
// back into v. The header is written above the document as comments.
func EditTOML(ctx context.Context, v any, header string) error {
	var buf bytes.Buffer
	for _, line := range splitLines(header) {
		buf.WriteString("# " + line + "\n")
	}
	if header != "" {
		buf.WriteString("\n")
	}
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	edited, err := Edit(ctx, buf.Bytes(), "excellia-*.toml")
	if err != nil {
		return err
	}
	if _, err := toml.Decode(string(edited), v); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
