package pka

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"

	billy "gopkg.in/src-d/go-billy.v4"

	"github.com/pocketknife/pka/internal/pathutil"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Archive pairs an index with the stream it was read from.
//
// Archive implements fs.FS, fs.StatFS, fs.ReadFileFS and fs.ReadDirFS.
// Entry names are file paths; directories are synthesized from
// slash-separated prefixes. Names that are not valid fs paths are only
// reachable through Extract.
//
// Every read seeks the shared stream, so an Archive must not be used from
// more than one goroutine at a time.
type Archive struct {
	idx *Index
	r   io.ReadSeeker
}

// Open reads the index from r and returns an Archive over it.
func Open(r io.ReadSeeker, opts ...ReadOption) (*Archive, error) {
	idx, err := Read(r, opts...)
	if err != nil {
		return nil, err
	}
	return &Archive{idx: idx, r: r}, nil
}

// Index returns the archive's index.
func (a *Archive) Index() *Index {
	return a.idx
}

// Extract returns the payload stored under name.
func (a *Archive) Extract(name string) ([]byte, error) {
	return a.idx.Extract(a.r, name)
}

// ExtractTo copies the payload stored under name to w.
func (a *Archive) ExtractTo(w io.Writer, name string) (int64, error) {
	return a.idx.ExtractTo(w, a.r, name)
}

// Open implements fs.FS. File content is read when the file is opened.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if e, ok := a.idx.Lookup(name); ok {
		data, err := a.idx.Extract(a.r, name)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return &openFile{Reader: bytes.NewReader(data), info: newFileInfo(name, e)}, nil
	}

	if a.isDir(name) {
		return &openDir{a: a, name: name}, nil
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS without reading file content.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := a.idx.Lookup(name); ok {
		return newFileInfo(name, e), nil
	}
	if a.isDir(name) {
		return newDirInfo(name), nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadFile implements fs.ReadFileFS.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	if _, ok := a.idx.Lookup(name); !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.idx.Extract(a.r, name)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if _, ok := a.idx.Lookup(name); ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}
	entries := a.children(name)
	if len(entries) == 0 && name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return entries, nil
}

// isDir reports whether any valid entry name lies under name.
func (a *Archive) isDir(name string) bool {
	if name == "." {
		return true
	}
	for n := range a.idx.WithPrefix(name + "/") {
		if fs.ValidPath(n) {
			return true
		}
	}
	return false
}

// children lists the direct children of dir, synthesizing subdirectories.
func (a *Archive) children(dir string) []fs.DirEntry {
	prefix := pathutil.DirPrefix(dir)

	seen := make(map[string]bool)
	var out []fs.DirEntry
	for name, e := range a.idx.WithPrefix(prefix) {
		if !fs.ValidPath(name) {
			continue
		}
		child, nested := pathutil.Child(name, prefix)
		if seen[child] {
			continue
		}
		if nested {
			// A file with the same name as this directory takes precedence.
			if _, isFile := a.idx.Lookup(prefix + child); isFile {
				continue
			}
			seen[child] = true
			out = append(out, fs.FileInfoToDirEntry(newDirInfo(child)))
			continue
		}
		seen[child] = true
		out = append(out, fs.FileInfoToDirEntry(newFileInfo(child, e)))
	}

	slices.SortFunc(out, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
	return out
}

// fileInfo describes an entry or a synthesized directory.
type fileInfo struct {
	name string
	size int64
	dir  bool
}

func newFileInfo(name string, e Entry) *fileInfo {
	size := int64(e.Length)
	if size < 0 {
		size = -1
	}
	return &fileInfo{name: pathutil.Base(name), size: size}
}

func newDirInfo(name string) *fileInfo {
	return &fileInfo{name: pathutil.Base(name), dir: true}
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return fi.dir }
func (fi *fileInfo) Sys() any           { return nil }

func (fi *fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

// openFile is an extracted entry opened through Archive.Open.
type openFile struct {
	*bytes.Reader
	info *fileInfo
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Close() error               { return nil }

// openDir is a directory opened through Archive.Open.
type openDir struct {
	a       *Archive
	name    string
	entries []fs.DirEntry
	loaded  bool
}

func (d *openDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) { return newDirInfo(d.name), nil }
func (d *openDir) Close() error               { return nil }

// ReadDir implements fs.ReadDirFile.
func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		d.entries = d.a.children(d.name)
		d.loaded = true
	}
	if n <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n]
	d.entries = d.entries[n:]
	return out, nil
}

// ArchiveFile is an Archive backed by a file it owns.
// Close must be called to release the file.
type ArchiveFile struct {
	*Archive
	f billy.File
}

// OpenFile opens the archive at path in fsys.
func OpenFile(fsys billy.Filesystem, path string, opts ...ReadOption) (*ArchiveFile, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := Open(f, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &ArchiveFile{Archive: a, f: f}, nil
}

// Close closes the underlying file.
func (af *ArchiveFile) Close() error {
	if af.f == nil {
		return nil
	}
	err := af.f.Close()
	af.f = nil
	return err
}
