package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/creative280/proyecto-fs-servicios/internal/errcode"
	"github.com/creative280/proyecto-fs-servicios/internal/pathguard"
)

// MaxContentBytes is the largest payload accepted by Write and Append.
const MaxContentBytes = 1_000_000

// Store handles file operations confined to a base directory.
type Store struct {
	fs    afero.Fs
	guard pathguard.Guard
}

// FileInfo describes one entry of the base directory.
type FileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	IsDir    bool   `json:"isDir,omitempty"`
}

// New creates a Store rooted at baseDir, creating the directory if needed.
// A nil fsys means the OS filesystem.
func New(fsys afero.Fs, baseDir string) (*Store, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	guard, err := pathguard.New(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	abs := guard.Base
	if info, err := fsys.Stat(abs); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("base directory %s is not a directory", abs)
		}
	} else if err := fsys.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &Store{fs: fsys, guard: guard}, nil
}

// BaseDir returns the absolute base directory.
func (s *Store) BaseDir() string {
	return s.guard.Base
}

// Write creates or fully overwrites name with content.
func (s *Store) Write(name, content string) error {
	path, err := s.resolveForWrite(name, content)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, path, []byte(content), 0644); err != nil {
		return classify(name, "escribir", err)
	}
	return nil
}

// Append adds content to the end of name, creating it when absent.
func (s *Store) Append(name, content string) error {
	path, err := s.resolveForWrite(name, content)
	if err != nil {
		return err
	}
	f, err := s.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return classify(name, "escribir", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return classify(name, "escribir", err)
	}
	if err := f.Close(); err != nil {
		return classify(name, "escribir", err)
	}
	return nil
}

// Read returns the full content of name.
func (s *Store) Read(name string) (string, error) {
	path, err := s.guard.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := s.requireFile(name, path, "leer"); err != nil {
		return "", err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", classify(name, "leer", err)
	}
	return string(data), nil
}

// Delete removes name. Directories are never removed.
func (s *Store) Delete(name string) error {
	path, err := s.guard.Resolve(name)
	if err != nil {
		return err
	}
	if err := s.requireFile(name, path, "eliminar"); err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil {
		return classify(name, "eliminar", err)
	}
	return nil
}

// List returns the names of all entries directly inside the base directory,
// sorted by name. Subdirectories are included.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.guard.Base)
	if err != nil {
		return nil, classify("", "listar", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// ListInfo is List with size and modification time for each entry.
func (s *Store) ListInfo() ([]FileInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.guard.Base)
	if err != nil {
		return nil, classify("", "listar", err)
	}
	infos := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, FileInfo{
			Name:     e.Name(),
			Size:     e.Size(),
			Modified: e.ModTime().UTC().Format(time.RFC3339),
			IsDir:    e.IsDir(),
		})
	}
	return infos, nil
}

func (s *Store) resolveForWrite(name, content string) (string, error) {
	path, err := s.guard.Resolve(name)
	if err != nil {
		return "", err
	}
	if len(content) > MaxContentBytes {
		return "", errcode.New(errcode.ContentTooLarge, name, "El contenido es demasiado grande (máximo 1MB)")
	}
	return path, nil
}

// requireFile fails unless path exists and is not a directory.
func (s *Store) requireFile(name, path, verb string) error {
	info, err := s.fs.Stat(path)
	if err != nil {
		return classify(name, verb, err)
	}
	if info.IsDir() {
		return errcode.New(errcode.IsADirectory, name, "El nombre especificado es un directorio, no un archivo")
	}
	return nil
}

// classify maps a filesystem error to its errcode classification.
// Unknown errors are wrapped without a code.
func classify(name, verb string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errcode.Wrap(errcode.NotFound, name, "Archivo no encontrado", err)
	case errors.Is(err, fs.ErrPermission):
		return errcode.Wrap(errcode.PermissionDenied, name, fmt.Sprintf("Sin permisos para %s el archivo", verb), err)
	case errors.Is(err, syscall.EISDIR):
		return errcode.Wrap(errcode.IsADirectory, name, "El nombre especificado es un directorio, no un archivo", err)
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EDQUOT):
		return errcode.Wrap(errcode.InsufficientSpace, name, "Espacio en disco insuficiente", err)
	}
	return fmt.Errorf("%s %q: %w", verb, name, err)
}
