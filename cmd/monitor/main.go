// Package main запускает монитор спектра телеметрии:
// - чтение строк из последовательного порта, файла захвата или stdin
// - скользящее окно и амплитудный спектр (ДПФ) каждые N отсчетов
// - HTTP API с последним кадром и экспорт метрик в Prometheus
// - публикация кадров в Redis
package main

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/idgaron/Capstone-Software/internal/config"
	"github.com/idgaron/Capstone-Software/internal/environ"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Windowed spectrum monitor for serial telemetry",
	Long: `Monitor reads "timestamp ... value" lines from a serial device or a capture file,
keeps a sliding window of samples and periodically publishes its magnitude spectrum.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrap(err, "invalid log level")
		}
		log.SetLevel(lvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath,
		"config",
		environ.GetString("MONITOR_CONFIG", ""),
		"Path to YAML config. Defaults and MONITOR_* environment variables apply when empty.",
	)
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		"",
		"Log level. One of debug, info, warn, error. Overrides log_level from config.",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig загружает конфигурацию и применяет уровень логирования из нее,
// если он не задан флагом
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		lvl, _ := log.ParseLevel(cfg.LogLevel)
		log.SetLevel(lvl)
	}
	return cfg, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
