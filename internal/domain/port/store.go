package port

import (
	"image"
	"io"
)

// ScanStore файловое хранилище загрузок и результатов
type ScanStore interface {
	// SaveUpload сохраняет загруженный файл и возвращает путь к нему
	SaveUpload(filename string, r io.Reader) (string, error)

	// SaveImage сохраняет изображение под именем name и возвращает путь
	SaveImage(name string, img image.Image) (string, error)

	// Resolve возвращает путь к существующему файлу внутри хранилища
	Resolve(path string) (string, error)
}
