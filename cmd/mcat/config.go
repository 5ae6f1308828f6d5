package main

import (
	"fmt"
	"strings"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/store"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (MCAT_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value, falling back to defaultValue
// when the key is set nowhere
func GetConfigBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

// GetConfigStringSlice retrieves a string slice config value
func GetConfigStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// parseMediaType accepts a cookie tag or a friendly name, case-insensitive
func parseMediaType(s string) (catalog.MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "music", "audio":
		return catalog.MediaMusic, nil
	case "movie", "movies", "video":
		return catalog.MediaMovie, nil
	case "pic", "pics", "picture", "pictures":
		return catalog.MediaPicture, nil
	}
	return 0, fmt.Errorf("unknown media type %q (use music, movie or pic)", s)
}

// parseMediaFlags turns a comma-separated list into a flag set. An empty
// string selects every media type.
func parseMediaFlags(s string) (catalog.MediaFlags, error) {
	if strings.TrimSpace(s) == "" {
		return catalog.FlagAll, nil
	}
	var flags catalog.MediaFlags
	for _, part := range strings.Split(s, ",") {
		mt, err := parseMediaType(part)
		if err != nil {
			return 0, err
		}
		flags |= mt.Flag()
	}
	return flags, nil
}

// openDB opens the snapshot database, with relaxed sync pragmas when
// network_db is set
func openDB(path string) (*store.Store, error) {
	return store.OpenWithOptions(path, &store.OpenOptions{
		NetworkOptimized: GetConfigBool("network_db", false),
	})
}
