// Package storage is the blob collaborator: it keeps uploaded
// signed-contract files keyed by student id + filename and hands back a
// URL path the API can serve. The interface mirrors what a cloud bucket
// would offer so the disk implementation can be swapped out.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Blobs stores uploaded files and returns retrievable URLs.
type Blobs interface {
	// Save stores the file content under student id + filename and
	// returns the URL path it is served from.
	Save(studentID, filename string, content io.Reader) (string, error)

	// Open returns the stored file for a previously returned URL path.
	Open(urlPath string) (io.ReadCloser, error)
}

// Disk is a local-filesystem Blobs implementation rooted at a directory.
type Disk struct {
	root      string
	urlPrefix string
}

// NewDisk creates a disk store rooted at dir; stored files are addressed
// under urlPrefix (e.g. "/files").
func NewDisk(dir, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Disk{root: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (d *Disk) Save(studentID, filename string, content io.Reader) (string, error) {
	name := sanitize(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	dir := filepath.Join(d.root, "contracts", studentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create student dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return fmt.Sprintf("%s/contracts/%s/%s", d.urlPrefix, studentID, name), nil
}

func (d *Disk) Open(urlPath string) (io.ReadCloser, error) {
	rel := strings.TrimPrefix(urlPath, d.urlPrefix)
	rel = strings.TrimPrefix(rel, "/")

	// Reject traversal before touching the filesystem.
	clean := filepath.Clean(rel)
	if clean != rel || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid path %q", urlPath)
	}

	f, err := os.Open(filepath.Join(d.root, clean))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// sanitize strips directory components and characters that have no place
// in an uploaded filename.
func sanitize(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
