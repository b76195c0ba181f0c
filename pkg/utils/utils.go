package utils

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,64}$`)

// ExtractPlaylistID accepts a bare playlist id or any YouTube URL carrying a
// list parameter. It returns "" when neither is present.
func ExtractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if playlistIDPattern.MatchString(input) {
		return input
	}

	u, err := url.Parse(input)
	if err != nil || !IsYouTubeHost(u.Hostname()) {
		return ""
	}

	id := u.Query().Get("list")
	if !playlistIDPattern.MatchString(id) {
		return ""
	}
	return id
}

func IsYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtube.com" || host == "youtu.be" || strings.HasSuffix(host, ".youtube.com")
}

// NewLogger returns a production logger, or a development one when level is debug.
func NewLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
