package source

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// SerialConfig описывает подключение к последовательному порту
type SerialConfig struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	FlushOnOpen bool          `yaml:"flush_on_open"`
}

// SerialSource читает строки из последовательного порта
type SerialSource struct {
	port    io.ReadCloser
	reader  *bufio.Reader
	pending strings.Builder
}

// OpenSerial открывает порт и при необходимости сбрасывает накопленный мусор во входном буфере
func OpenSerial(cfg SerialConfig) (*SerialSource, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Port)
	}

	if cfg.FlushOnOpen {
		if err := port.Flush(); err != nil {
			log.Warnf("Failed to flush serial port %s: %v", cfg.Port, err)
		}
	}

	log.Infof("Opened serial port %s at %d baud", cfg.Port, cfg.Baud)
	return newSerialSource(port), nil
}

func newSerialSource(port io.ReadCloser) *SerialSource {
	return &SerialSource{
		port:   port,
		reader: bufio.NewReader(port),
	}
}

// ReadLine блокируется до получения полной строки.
// Таймаут чтения порта (пустое чтение) не считается концом потока.
func (s *SerialSource) ReadLine(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk, err := s.reader.ReadString('\n')
		s.pending.WriteString(chunk)
		if err == nil {
			line := s.pending.String()
			s.pending.Reset()
			return trimLine(line), nil
		}
		if errors.Is(err, io.EOF) {
			continue
		}
		return "", errors.Wrap(err, "read serial port")
	}
}

// Close закрывает порт
func (s *SerialSource) Close() error {
	return s.port.Close()
}
