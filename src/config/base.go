package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/agentgpt/src/data"
)

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(name, envKey string, defaultValue bool) bool {
	raw := strings.ToLower(strings.TrimSpace(GetSetting(name, envKey, "")))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getIntSetting(name, envKey string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(GetSetting(name, envKey, ""))); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getSecondsSetting(name, envKey string, defaultValue time.Duration) time.Duration {
	if secs := getIntSetting(name, envKey, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getListSetting(name, envKey string, defaultValue []string) []string {
	raw := GetSetting(name, envKey, "")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
