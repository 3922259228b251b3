// Package ingest разбирает строки телеметрии в записи.
// Неполные и испорченные строки являются штатной ситуацией при чтении из
// последовательного порта, поэтому они отбрасываются без ошибки.
package ingest

import (
	"strconv"
	"strings"

	"emperror.dev/errors"

	"github.com/idgaron/Capstone-Software/internal/models"
)

// ErrInvalidConfig возвращается при некорректной конфигурации разбора
var ErrInvalidConfig = errors.NewPlain("invalid ingest config")

// Config описывает формат строки телеметрии
type Config struct {
	// Separator разделитель полей; пустая строка означает пробельные символы
	Separator      string `yaml:"separator"`
	TimestampIndex int    `yaml:"timestamp_index"`
	ValueIndex     int    `yaml:"value_index"`
	MinFields      int    `yaml:"min_fields"`
}

// Ingestor превращает строку в запись телеметрии
type Ingestor struct {
	cfg      Config
	required int
}

// Validate проверяет индексы полей
func (c Config) Validate() error {
	if c.TimestampIndex < 0 {
		return errors.Wrapf(ErrInvalidConfig, "timestamp index must be >= 0: %d", c.TimestampIndex)
	}
	if c.ValueIndex < 0 {
		return errors.Wrapf(ErrInvalidConfig, "value index must be >= 0: %d", c.ValueIndex)
	}
	if c.MinFields < 0 {
		return errors.Wrapf(ErrInvalidConfig, "min fields must be >= 0: %d", c.MinFields)
	}
	return nil
}

// New создает разборщик строк с заданной конфигурацией
func New(cfg Config) (*Ingestor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Короткая строка никогда не должна приводить к выходу за границы
	required := cfg.MinFields
	if cfg.TimestampIndex+1 > required {
		required = cfg.TimestampIndex + 1
	}
	if cfg.ValueIndex+1 > required {
		required = cfg.ValueIndex + 1
	}

	return &Ingestor{cfg: cfg, required: required}, nil
}

// RequiredFields возвращает фактическое минимальное число полей
func (i *Ingestor) RequiredFields() int {
	return i.required
}

// Parse разбирает одну строку. Второе значение false означает "нет записи".
func (i *Ingestor) Parse(line string) (models.Record, bool) {
	fields := i.split(strings.TrimSpace(line))
	if len(fields) < i.required {
		return models.Record{}, false
	}

	ts, err := strconv.ParseFloat(strings.TrimSpace(fields[i.cfg.TimestampIndex]), 64)
	if err != nil {
		return models.Record{}, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(fields[i.cfg.ValueIndex]), 64)
	if err != nil {
		return models.Record{}, false
	}

	return models.Record{Timestamp: ts, Value: value}, true
}

func (i *Ingestor) split(line string) []string {
	if line == "" {
		return nil
	}
	if i.cfg.Separator == "" {
		return strings.Fields(line)
	}
	return strings.Split(line, i.cfg.Separator)
}
