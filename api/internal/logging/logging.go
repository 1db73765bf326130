package logging

import (
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs the process-wide apex/log handler. format is "json" or
// "text"; an unknown level falls back to info.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

func SetupWriter(w io.Writer, level, format string) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		log.SetHandler(json.New(w))
	default:
		log.SetHandler(text.New(w))
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
