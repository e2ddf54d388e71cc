package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	ErrNotFound         = errors.New("environment variable with key not found")
	ErrConversionFailed = errors.New("failed to convert environment variable with key to value")
)

func errNotFound(key string) error {
	return fmt.Errorf("key: %s: %w", key, ErrNotFound)
}

func errConversionFailed(key string, typeName string, err error) error {
	return fmt.Errorf("key: %s type: %s: %w: %s", key, typeName, ErrConversionFailed, err.Error())
}

func MustGetString(key string) string {
	if val, found := os.LookupEnv(key); found {
		return val
	}

	panic(errNotFound(key))
}

func GetStringOrDefault(key string, defaultVal string) string {
	if val, found := os.LookupEnv(key); found && val != "" {
		return val
	}

	return defaultVal
}

func GetIntOrDefault(key string, defaultVal int) (int, error) {
	envVal, found := os.LookupEnv(key)
	if !found || envVal == "" {
		return defaultVal, nil
	}

	val, err := strconv.Atoi(envVal)
	if err != nil {
		return 0, errConversionFailed(key, "int", err)
	}

	return val, nil
}

func GetFloatOrDefault(key string, defaultVal float64) (float64, error) {
	envVal, found := os.LookupEnv(key)
	if !found || envVal == "" {
		return defaultVal, nil
	}

	val, err := strconv.ParseFloat(envVal, 64)
	if err != nil {
		return 0, errConversionFailed(key, "float64", err)
	}

	return val, nil
}

// GetDurationOrDefault accepts Go duration strings ("1s", "250ms").
func GetDurationOrDefault(key string, defaultVal time.Duration) (time.Duration, error) {
	envVal, found := os.LookupEnv(key)
	if !found || envVal == "" {
		return defaultVal, nil
	}

	val, err := time.ParseDuration(envVal)
	if err != nil {
		return 0, errConversionFailed(key, "time.Duration", err)
	}

	if val <= 0 {
		return 0, errConversionFailed(key, "time.Duration", fmt.Errorf("must be positive, got %s", val))
	}

	return val, nil
}
