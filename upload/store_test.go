package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

// fileHeader builds a *multipart.FileHeader the way gin hands it to the
// handler: through a parsed multipart request.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("gif", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parsing multipart form: %v", err)
	}

	return req.MultipartForm.File["gif"][0]
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	if _, err := NewStore(dir, 1024); err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("upload dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("upload path is not a directory")
	}
}

func TestSaveTimestampsFilename(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1024)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	content := []byte("GIF89a fake image data")
	name, err := store.Save(fileHeader(t, "funny.gif", content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// <original-basename><upload-timestamp><original-extension>
	if ok, _ := regexp.MatchString(`^funny\d+\.gif$`, name); !ok {
		t.Fatalf("stored filename %q does not match basename+timestamp+ext", name)
	}

	stored, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatal("stored content differs from upload")
	}
}

func TestSaveNoExtension(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1024)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	name, err := store.Save(fileHeader(t, "plain", []byte("data")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, _ := regexp.MatchString(`^plain\d+$`, name); !ok {
		t.Fatalf("stored filename %q, want plain+timestamp", name)
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 8)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = store.Save(fileHeader(t, "big.gif", bytes.Repeat([]byte("x"), 64)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Save oversized = %v, want ErrTooLarge", err)
	}

	// Nothing was written.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}
