package frigateconf

import (
	"bytes"
	"os"
)

// canonicalBytes serializes a document for comparison: normalized section
// order, no comments, no blank-line layout.
func canonicalBytes(doc *Document) ([]byte, error) {
	work := doc.Clone()
	work.reorder()
	stripComments(work.root)
	return encodeYAML(work.root)
}

// Verify re-reads the file and checks that it parses back to the same
// section content as the given document. Formatting and comments are
// ignored.
func (s *Store) Verify(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyLocked(doc)
}

func (s *Store) verifyLocked(doc *Document) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return NewReadError(s.path, err)
	}
	onDisk, perr := ParseDocument(data)
	if perr != nil {
		return &ConfigError{
			Type:    ErrTypeVerify,
			Path:    s.path,
			Message: "saved configuration does not parse",
			Err:     perr,
		}
	}
	want, err := canonicalBytes(doc)
	if err != nil {
		return err
	}
	got, err := canonicalBytes(onDisk)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return NewVerifyError(s.path, "saved configuration does not match the written content")
	}
	return nil
}
