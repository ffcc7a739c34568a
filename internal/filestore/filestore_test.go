package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creative280/proyecto-fs-servicios/internal/errcode"
)

// createTestStore creates a store on the OS filesystem under a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(nil, filepath.Join(t.TempDir(), "archivos"))
	require.NoError(t, err)
	return s
}

func TestNew_CreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	s, err := New(nil, dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, s.BaseDir())
}

func TestWrite_ThenRead(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Write("t.txt", "hello"))

	got, err := s.Read("t.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestWrite_Idempotent(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Write("n.txt", "same"))
	require.NoError(t, s.Write("n.txt", "same"))

	got, err := s.Read("n.txt")
	require.NoError(t, err)
	assert.Equal(t, "same", got)
}

func TestWrite_Overwrites(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Write("n.txt", "a much longer first version"))
	require.NoError(t, s.Write("n.txt", "short"))

	got, err := s.Read("n.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", got)
}

func TestWrite_EmptyContent(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Write("empty.txt", ""))

	got, err := s.Read("empty.txt")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestAppend_Accumulates(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Write("n.txt", "a"))
	require.NoError(t, s.Append("n.txt", "b"))

	got, err := s.Read("n.txt")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestAppend_CreatesMissingFile(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Append("new.txt", "first"))

	got, err := s.Read("new.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestSizeCap(t *testing.T) {
	s := createTestStore(t)

	atCap := strings.Repeat("x", MaxContentBytes)
	overCap := atCap + "x"

	require.NoError(t, s.Write("cap.txt", atCap))

	err := s.Write("over.txt", overCap)
	assert.True(t, errcode.Is(err, errcode.ContentTooLarge), "got %v", err)

	err = s.Append("cap.txt", overCap)
	assert.True(t, errcode.Is(err, errcode.ContentTooLarge), "got %v", err)

	// Rejected writes leave nothing behind.
	_, statErr := os.Stat(filepath.Join(s.BaseDir(), "over.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNew_CleansBaseDir(t *testing.T) {
	root := t.TempDir()

	s, err := New(nil, filepath.Join(root, "x", "..", "archivos"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "archivos"), s.BaseDir())

	require.NoError(t, s.Write("t.txt", "hola"))
	data, err := os.ReadFile(filepath.Join(root, "archivos", "t.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hola", string(data))
}

func TestNew_RelativeBaseDir(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	s, err := New(nil, "archivos")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(s.BaseDir()), "got %s", s.BaseDir())

	require.NoError(t, s.Write("t.txt", "hola"))
	_, err = os.Stat(filepath.Join(root, "archivos", "t.txt"))
	assert.NoError(t, err)
}

func TestGuardFailuresPropagate(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		call func() error
		want errcode.Code
	}{
		{"WriteTraversal", func() error { return s.Write("../x", "c") }, errcode.ForbiddenCharacters},
		{"AppendEmpty", func() error { return s.Append("", "c") }, errcode.InvalidName},
		{"ReadAbsolute", func() error { _, err := s.Read("/etc/passwd"); return err }, errcode.ForbiddenCharacters},
		{"DeleteDot", func() error { return s.Delete(".") }, errcode.PathEscape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, errcode.Is(err, tt.want), "want %s, got %v", tt.want, err)
		})
	}
}

func TestGuardRunsBeforeSizeCheck(t *testing.T) {
	s := createTestStore(t)

	err := s.Write("a/b", strings.Repeat("x", MaxContentBytes+1))
	assert.True(t, errcode.Is(err, errcode.ForbiddenCharacters), "got %v", err)
}

func TestRead_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Read("missing.txt")
	assert.True(t, errcode.Is(err, errcode.NotFound), "got %v", err)
}

func TestRead_Directory(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.BaseDir(), "sub"), 0755))

	_, err := s.Read("sub")
	assert.True(t, errcode.Is(err, errcode.IsADirectory), "got %v", err)
}

func TestWrite_Directory(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.BaseDir(), "sub"), 0755))

	err := s.Write("sub", "x")
	assert.True(t, errcode.Is(err, errcode.IsADirectory), "got %v", err)
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Write("t.txt", "hello"))

	require.NoError(t, s.Delete("t.txt"))

	_, err := s.Read("t.txt")
	assert.True(t, errcode.Is(err, errcode.NotFound))

	err = s.Delete("t.txt")
	assert.True(t, errcode.Is(err, errcode.NotFound), "got %v", err)
}

func TestDelete_DirectoryIsKept(t *testing.T) {
	s := createTestStore(t)
	dir := filepath.Join(s.BaseDir(), "sub")
	require.NoError(t, os.Mkdir(dir, 0755))

	err := s.Delete("sub")
	assert.True(t, errcode.Is(err, errcode.IsADirectory), "got %v", err)

	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr)
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Write("b.txt", "2"))
	require.NoError(t, s.Write("a.txt", "1"))
	require.NoError(t, os.Mkdir(filepath.Join(s.BaseDir(), "sub"), 0755))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "sub"}, names)
}

func TestList_Empty(t *testing.T) {
	s := createTestStore(t)

	names, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestListInfo(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Write("a.txt", "12345"))

	infos, err := s.ListInfo()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "a.txt", infos[0].Name)
	assert.Equal(t, int64(5), infos[0].Size)
	assert.NotEmpty(t, infos[0].Modified)
	assert.False(t, infos[0].IsDir)
}

func TestMemMapFs(t *testing.T) {
	s, err := New(afero.NewMemMapFs(), "/data/archivos")
	require.NoError(t, err)

	require.NoError(t, s.Write("mem.txt", "a"))
	require.NoError(t, s.Append("mem.txt", "b"))

	got, err := s.Read("mem.txt")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"mem.txt"}, names)
}

func TestReadOnlyFs_PermissionDenied(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data/archivos", 0755))
	require.NoError(t, afero.WriteFile(base, "/data/archivos/keep.txt", []byte("kept"), 0644))

	s, err := New(afero.NewReadOnlyFs(base), "/data/archivos")
	require.NoError(t, err)

	err = s.Write("new.txt", "x")
	assert.True(t, errcode.Is(err, errcode.PermissionDenied), "got %v", err)

	err = s.Append("keep.txt", "x")
	assert.True(t, errcode.Is(err, errcode.PermissionDenied), "got %v", err)

	err = s.Delete("keep.txt")
	assert.True(t, errcode.Is(err, errcode.PermissionDenied), "got %v", err)

	got, err := s.Read("keep.txt")
	require.NoError(t, err)
	assert.Equal(t, "kept", got)
}
