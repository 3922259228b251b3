package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idgaron/Capstone-Software/internal/analytics"
	"github.com/idgaron/Capstone-Software/internal/ingest"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and build the analyzer without opening any device",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ing, err := ingest.New(cfg.Ingest)
		if err != nil {
			return err
		}
		if _, err := analytics.NewAnalyzer(cfg.Analyzer); err != nil {
			return err
		}

		w := cfg.Analyzer.WindowSize
		f := cfg.Analyzer.SampleRate
		log.WithFields(log.Fields{
			"source":          cfg.Source.Kind,
			"window_size":     w,
			"sample_rate_hz":  f,
			"resolution_hz":   f / float64(w),
			"window_seconds":  float64(w) / f,
			"update_interval": cfg.Monitor.UpdateInterval,
			"required_fields": ing.RequiredFields(),
			"http":            cfg.HTTP.Enabled,
			"redis":           cfg.Redis.Enabled,
		}).Info("Config OK")
		return nil
	},
}
