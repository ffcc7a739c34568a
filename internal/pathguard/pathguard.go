// Package pathguard turns client-supplied file names into paths that are
// guaranteed to stay inside a base directory.
//
// The namespace is flat: no subdirectory is ever addressable. Resolution is
// pure string arithmetic and never touches the filesystem, so a rejection
// always happens before any I/O.
package pathguard

import (
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/creative280/proyecto-fs-servicios/internal/errcode"
)

// MaxNameLength is the longest accepted name, in UTF-16 code units.
const MaxNameLength = 255

// forbidden lists the substrings a name must not contain. ".." is matched
// as a substring, not as a path segment, so "re..port.txt" is rejected too.
var forbidden = []string{"..", "/", `\`}

// Resolve validates rawName and joins it onto base.
//
// base must be an absolute directory path. The result is base followed by a
// separator and a non-empty remainder; base itself is never returned.
//
// Failures:
//   - errcode.InvalidName: rawName is empty or longer than MaxNameLength
//   - errcode.ForbiddenCharacters: rawName contains "..", "/" or "\"
//   - errcode.PathEscape: the resolved path is not strictly inside base
func Resolve(base, rawName string) (string, error) {
	if rawName == "" {
		return "", errcode.New(errcode.InvalidName, rawName, "nombre de archivo inválido")
	}
	if nameLength(rawName) > MaxNameLength {
		return "", errcode.New(errcode.InvalidName, rawName, "Nombre de archivo demasiado largo")
	}
	for _, s := range forbidden {
		if strings.Contains(rawName, s) {
			return "", errcode.New(errcode.ForbiddenCharacters, rawName, "Nombre de archivo contiene caracteres no permitidos")
		}
	}

	base = filepath.Clean(base)
	resolved := filepath.Join(base, rawName)

	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(resolved, prefix) || len(resolved) == len(prefix) {
		return "", errcode.New(errcode.PathEscape, rawName, "Ruta fuera del directorio permitido")
	}
	return resolved, nil
}

// nameLength counts UTF-16 code units, the unit clients measure names in.
func nameLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Guard binds Resolve to one base directory.
type Guard struct {
	Base string
}

// New creates a Guard for base, made absolute.
func New(base string) (Guard, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return Guard{}, err
	}
	return Guard{Base: abs}, nil
}

// Resolve validates name against the guard's base directory.
func (g Guard) Resolve(name string) (string, error) {
	return Resolve(g.Base, name)
}
