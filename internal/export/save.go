package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is the name suggested for every snapshot.
const DefaultFilename = "parainage-telecom.svg"

// ErrCancelled means the user declined to pick a file. It is an outcome,
// not a failure.
var ErrCancelled = errors.New("export cancelled")

// Downloader stores a document without asking anything.
type Downloader interface {
	Download(ctx context.Context, name string, data []byte) (string, error)
}

// SaveAsPrompter lets the user choose where the document goes.
type SaveAsPrompter interface {
	SaveAs(ctx context.Context, suggested string, data []byte) (string, error)
}

// Outcome says what Save did.
type Outcome struct {
	Location  string `json:"location,omitempty"`
	Prompted  bool   `json:"prompted"`
	Cancelled bool   `json:"cancelled"`
}

// Save stores data through dest, asking the user first when dest can. A
// cancelled prompt returns Cancelled with a nil error.
func Save(ctx context.Context, dest Downloader, name string, data []byte) (Outcome, error) {
	if name == "" {
		name = DefaultFilename
	}
	if p, ok := dest.(SaveAsPrompter); ok {
		loc, err := p.SaveAs(ctx, name, data)
		switch {
		case errors.Is(err, ErrCancelled):
			return Outcome{Prompted: true, Cancelled: true}, nil
		case err != nil:
			return Outcome{Prompted: true}, fmt.Errorf("save as: %w", err)
		}
		return Outcome{Location: loc, Prompted: true}, nil
	}
	loc, err := dest.Download(ctx, name, data)
	if err != nil {
		return Outcome{}, fmt.Errorf("download: %w", err)
	}
	return Outcome{Location: loc}, nil
}

// FileDest writes into a directory, or to an exact path when Path is set.
type FileDest struct {
	Dir  string
	Path string
}

// Download implements Downloader.
func (d FileDest) Download(_ context.Context, name string, data []byte) (string, error) {
	path := d.Path
	if path == "" {
		path = filepath.Join(d.Dir, name)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriterDest copies the document to a stream such as stdout.
type WriterDest struct {
	W io.Writer
}

// Download implements Downloader.
func (d WriterDest) Download(_ context.Context, name string, data []byte) (string, error) {
	if _, err := d.W.Write(data); err != nil {
		return "", err
	}
	return name, nil
}

// PromptDest asks on a terminal for the file name. An empty answer keeps
// the suggestion; "-" or end of input cancels.
type PromptDest struct {
	FileDest
	In  io.Reader
	Out io.Writer
}

// SaveAs implements SaveAsPrompter.
func (d PromptDest) SaveAs(ctx context.Context, suggested string, data []byte) (string, error) {
	fmt.Fprintf(d.Out, "  Save snapshot as [%s]: ", suggested)
	reader := bufio.NewReader(d.In)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", err
	}
	answer = strings.TrimSpace(answer)
	switch answer {
	case "-":
		return "", ErrCancelled
	case "":
		answer = suggested
	}
	if !strings.HasSuffix(strings.ToLower(answer), ".svg") {
		answer += ".svg"
	}
	dest := d.FileDest
	if filepath.IsAbs(answer) || strings.ContainsRune(answer, filepath.Separator) {
		dest.Path = answer
	} else {
		dest.Path = ""
	}
	return dest.Download(ctx, filepath.Base(answer), data)
}
