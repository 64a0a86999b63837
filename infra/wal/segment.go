package wal

import (
	"fmt"
	"os"
	"path/filepath"
)

type segment struct {
	file   *os.File
	offset int64
}

// openSegment opens or creates the segment file and truncates any torn
// bytes past the last whole frame, so appends never land behind garbage
// that replay would stop at.
func openSegment(dir string, index int) (*segment, error) {
	path := filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
	valid, err := validLength(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.Size() > valid {
		if err := f.Truncate(valid); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &segment{file: f, offset: valid}, nil
}

// append writes one whole frame. A partial write is rolled back by
// truncating to the pre-append offset, keeping the segment a sequence
// of whole frames.
func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	if err != nil {
		if n > 0 {
			_ = s.file.Truncate(s.offset)
		}
		return err
	}
	s.offset += int64(n)
	return nil
}

func (s *segment) sync() error {
	return s.file.Sync()
}

func (s *segment) close() error {
	return s.file.Close()
}
