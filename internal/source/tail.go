package source

import (
	"context"
	"io"

	"emperror.dev/errors"
	"github.com/nxadm/tail"
)

// FileSource читает строки из файла захвата, опционально следя за его ростом
type FileSource struct {
	tail *tail.Tail
}

// FollowFile открывает файл. При follow=false источник отдает io.EOF в конце файла.
func FollowFile(path string, follow bool) (*FileSource, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open capture file %s", path)
	}
	return &FileSource{tail: t}, nil
}

// ReadLine возвращает следующую строку файла
func (s *FileSource) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.tail.Lines:
		if !ok || line == nil {
			return "", io.EOF
		}
		if line.Err != nil {
			return "", errors.Wrap(line.Err, "tail capture file")
		}
		return trimLine(line.Text), nil
	}
}

// Close останавливает чтение файла
func (s *FileSource) Close() error {
	err := s.tail.Stop()
	s.tail.Cleanup()
	return err
}
