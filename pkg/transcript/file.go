// Package transcript handles the transcript files msum uploads for summarization.
package transcript

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
)

// Extension is the only transcript type the summarizer backend accepts.
const Extension = ".txt"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is a selected transcript: its display metadata plus the decoded content.
type File struct {
	Name    string
	Size    int64
	Content string
	// ConvertedFrom names the caption file this transcript was rendered from.
	ConvertedFrom string
}

// Open reads a transcript from disk. Files that are not valid UTF-8 are decoded
// as Windows-1252, which is what meeting tools on Windows tend to export.
// WebVTT captions are converted to a .txt transcript.
func Open(path string) (*File, error) {
	isVTT := strings.EqualFold(filepath.Ext(path), VTTExtension)
	if !isVTT {
		if err := CheckExtension(path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	if isVTT {
		return FromVTT(filepath.Base(path), data)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromVTT renders WebVTT captions as a transcript named after the caption
// file with a .txt extension. Size is the rendered length.
func FromVTT(name string, data []byte) (*File, error) {
	text, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	captions, err := ParseVTT(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if len(captions.Cues) == 0 {
		return nil, mserrors.NewValidationError("file", "The caption file contains no text.")
	}

	content := captions.Text()
	return &File{
		Name:          strings.TrimSuffix(name, filepath.Ext(name)) + Extension,
		Size:          int64(len(content)),
		Content:       content,
		ConvertedFrom: name,
	}, nil
}

// FromBytes builds a File from raw bytes. Size reports the raw byte length.
func FromBytes(name string, data []byte) (*File, error) {
	if err := CheckExtension(name); err != nil {
		return nil, err
	}

	content, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	return &File{
		Name:    name,
		Size:    int64(len(data)),
		Content: content,
	}, nil
}

// CheckExtension rejects anything but .txt files.
func CheckExtension(name string) error {
	if !strings.EqualFold(filepath.Ext(name), Extension) {
		return mserrors.NewValidationError("file", "Only .txt transcripts (or .vtt captions) are supported.")
	}
	return nil
}

// SizeLabel renders the size the way the upload panel shows it.
func (f *File) SizeLabel() string {
	return fmt.Sprintf("%.2f KB", float64(f.Size)/1024)
}

func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
