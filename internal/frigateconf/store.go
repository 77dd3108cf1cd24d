package frigateconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/logging"
)

// Store reads and writes one Frigate config.yaml. Every save goes through
// a temp file and rename, keeping the previous contents at Path()+".bak",
// so a failed save never leaves a half-written file behind.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore returns a store for the given config file path.
func NewStore(path string) *Store {
	return &Store{path: path, logger: logging.GetLogger()}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns where the previous file contents are kept.
func (s *Store) BackupPath() string {
	return s.path + ".bak"
}

// Exists reports whether the config file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the document, falling back to line-oriented recovery when
// strict parsing fails. Cameras that fail validation are removed from the
// returned document and listed in the report; the report is never nil on
// success.
func (s *Store) Load() (*Document, *RecoveryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*Document, *RecoveryReport, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, NewReadError(s.path, err)
	}

	report := &RecoveryReport{}
	if strings.TrimSpace(string(data)) == "" {
		return NewDocument(), report, nil
	}

	doc, perr := ParseDocument(data)
	if perr != nil {
		s.logger.Warn("config parse failed, running recovery",
			zap.String("path", s.path),
			zap.Error(perr))
		doc, report = RecoverDocument(data)
		report.Notes = append([]string{fmt.Sprintf("strict parse failed: %s", validationMessage(perr))}, report.Notes...)
	}

	cams := doc.Cameras()
	dropped, notes := filterCameras(cams)
	if len(dropped) > 0 {
		doc.SetCameras(cams)
		report.DroppedCameras = append(report.DroppedCameras, dropped...)
		report.Notes = append(report.Notes, notes...)
	}
	if report.HasFindings() {
		logging.LogConfigRecovery(s.path, report.Recovered, report.DroppedCameras)
	}
	return doc, report, nil
}

// Save writes the document atomically. The structural sections are
// guaranteed before writing and the top-level order is normalized; the
// caller's document is not modified.
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(doc)
}

func (s *Store) saveLocked(doc *Document) error {
	work := doc.Clone()
	work.EnsureDefaults()
	work.reorder()
	data, err := work.Marshal()
	if err != nil {
		return NewSaveError(s.path, "could not serialize configuration", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewSaveError(s.path, "could not create config directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return NewSaveError(s.path, "could not create temporary file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return NewSaveError(s.path, "could not write temporary file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return NewSaveError(s.path, "could not write temporary file", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return NewSaveError(s.path, "could not set file permissions", err)
	}

	backup := ""
	prev, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := os.WriteFile(s.BackupPath(), prev, 0o644); err != nil {
			os.Remove(tmpName)
			return NewSaveError(s.path, "could not write backup", err)
		}
		backup = s.BackupPath()
	case !os.IsNotExist(err):
		os.Remove(tmpName)
		return NewSaveError(s.path, "could not read existing file for backup", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return NewSaveError(s.path, "could not replace configuration file", err)
	}

	logging.LogConfigWrite(s.path, work.Cameras().Len(), backup)
	return s.verifyLocked(work)
}

// SaveCameras re-reads the on-disk document and replaces only its cameras
// section, leaving every other section as it was. It refuses to run when
// no configuration exists yet; setup creates the initial file.
func (s *Store) SaveCameras(cams *CameraSet) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{
				Type:    ErrTypeNotFound,
				Path:    s.path,
				Message: "no existing configuration; run setup to create one",
			}
		}
		return nil, NewReadError(s.path, err)
	}

	doc, _, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	doc.SetCameras(cams)
	if err := s.saveLocked(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WriteInitial creates the starter configuration when none exists yet,
// reporting whether it wrote anything.
func (s *Store) WriteInitial() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, NewReadError(s.path, err)
	}
	if err := s.saveLocked(DefaultDocument()); err != nil {
		return false, err
	}
	return true, nil
}
