// Package environ читает переменные окружения со значением по умолчанию
package environ

import (
	"os"
	"strconv"
	"time"
)

// GetString получает переменную окружения со значением по умолчанию
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetInt получает целочисленную переменную окружения
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// GetUint64 получает беззнаковую переменную окружения
func GetUint64(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// GetFloat64 получает вещественную переменную окружения
func GetFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetBool получает логическую переменную окружения
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// GetDuration получает длительность из переменной окружения
func GetDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
