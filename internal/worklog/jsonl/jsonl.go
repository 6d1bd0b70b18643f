// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package jsonl reads line-delimited JSON transcript files.
package jsonl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxLineSize bounds a single transcript line. Assistant turns embedding
// whole files can run to several megabytes.
const maxLineSize = 16 * 1024 * 1024

// Line is one non-empty line of a transcript.
type Line struct {
	Number int    // 1-based line number in the file
	Data   []byte // trimmed line, owned by the caller
}

// ReadFile returns every non-empty line of the file at path.
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript %s: %w", path, err)
	}
	defer f.Close()

	lines, err := Read(f)
	if err != nil {
		return lines, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	return lines, nil
}

// Read returns every non-empty line from r. Lines longer than the size
// bound are skipped and reading continues with the next line. On a read
// error the lines read so far are returned together with the error.
func Read(r io.Reader) ([]Line, error) {
	return read(r, maxLineSize)
}

func read(r io.Reader, limit int) ([]Line, error) {
	br := bufio.NewReaderSize(r, 256*1024)

	var lines []Line
	n := 0
	for {
		data, oversized, err := readLine(br, limit)
		if err != nil && !errors.Is(err, io.EOF) {
			return lines, err
		}
		if errors.Is(err, io.EOF) && len(data) == 0 && !oversized {
			return lines, nil
		}

		n++
		if trimmed := bytes.TrimSpace(data); !oversized && len(trimmed) > 0 {
			lines = append(lines, Line{Number: n, Data: trimmed})
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
	}
}

// readLine returns the next line including its newline, in a fresh slice.
// A line over limit bytes is consumed to its end and reported as oversized
// with no data.
func readLine(br *bufio.Reader, limit int) ([]byte, bool, error) {
	var (
		data      []byte
		oversized bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			if len(data)+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				oversized = true
				data = nil
			} else {
				data = append(data, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return data, oversized, err
	}
}
