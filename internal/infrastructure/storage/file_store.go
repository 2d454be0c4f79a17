package storage

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"

	"malaria-scan/internal/domain/port"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FileStore хранит загруженные снимки и построенные изображения в одном каталоге
type FileStore struct {
	dir string
}

// NewFileStore создаёт каталог dir, если его ещё нет
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// SaveUpload сохраняет поток r под очищенным именем файла
func (s *FileStore) SaveUpload(filename string, r io.Reader) (string, error) {
	name := SecureFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close upload: %w", closeErr)
	} else if err != nil {
		err = fmt.Errorf("write upload: %w", err)
	}
	if err != nil {
		// недописанный файл не должен попасть в анализ
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// SaveImage кодирует изображение по расширению имени (png, jpg)
func (s *FileStore) SaveImage(name string, img image.Image) (string, error) {
	path := filepath.Join(s.dir, SecureFilename(name))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save image %s: %w", name, err)
	}
	return path, nil
}

// Resolve принимает имя или путь, возвращённый SaveUpload, и находит файл
// внутри каталога хранилища. Пути за пределами каталога не выдаются.
func (s *FileStore) Resolve(path string) (string, error) {
	name := SecureFilename(filepath.Base(path))
	if name == "" {
		return "", fmt.Errorf("resolve %q: %w", path, os.ErrNotExist)
	}

	full := filepath.Join(s.dir, name)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("resolve %q: %w", path, os.ErrNotExist)
	}
	return full, nil
}

// SecureFilename оставляет в имени только безопасные ASCII-символы
func SecureFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

var _ port.ScanStore = (*FileStore)(nil)
