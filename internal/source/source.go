// Package source предоставляет построчные источники телеметрии:
// последовательный порт, файл захвата и произвольный io.Reader.
package source

import (
	"bufio"
	"context"
	"io"
	"strings"

	"emperror.dev/errors"
)

// LineSource отдает по одной строке, блокируясь до получения полной строки.
// Конец потока обозначается io.EOF.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
	Close() error
}

// trimLine удаляет терминатор строки и хвостовые пробелы
func trimLine(line string) string {
	return strings.TrimRight(line, " \t\r\n")
}

// ReaderSource читает строки из произвольного потока (stdin, pipe, тесты)
type ReaderSource struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
}

// NewReaderSource создает источник поверх потока
func NewReaderSource(rc io.ReadCloser) *ReaderSource {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &ReaderSource{rc: rc, scanner: scanner}
}

// ReadLine возвращает следующую строку или io.EOF
func (s *ReaderSource) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", errors.Wrap(err, "read line")
		}
		return "", io.EOF
	}
	return trimLine(s.scanner.Text()), nil
}

// Close закрывает поток
func (s *ReaderSource) Close() error {
	return s.rc.Close()
}
