package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteStarterConfig writes a commented config.yaml template so users can see
// the recognized option surface without reading docs. An existing file is
// left alone.
func WriteStarterConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("# omcm routing config.\n")
	sb.WriteString("# Every key is optional; a missing file means all defaults.\n\n")

	sb.WriteString("# Route every eligible agent to an external CLI without enabling\n")
	sb.WriteString("# fusion per session first.\n")
	sb.WriteString("# fusionDefault: true\n\n")

	sb.WriteString("# Set to \"always\" to keep routing even when an external\n")
	sb.WriteString("# delegation layer is active.\n")
	sb.WriteString("# fusionMode: always\n\n")

	sb.WriteString("# Claude usage percentage at which tasks route away unconditionally.\n")
	sb.WriteString("# threshold: 90\n\n")

	sb.WriteString("# routing:\n")
	sb.WriteString("#   eco-mode: false\n")
	sb.WriteString("#   large-task-keywords:\n")
	sb.WriteString("#     - refactor\n")
	sb.WriteString("#     - migrate\n\n")

	sb.WriteString("# context:\n")
	sb.WriteString("#   session-max-age-days: 7\n\n")

	sb.WriteString("# Switch-trigger thresholds. Environment variables with the\n")
	sb.WriteString("# OMCM_TRIGGER_ prefix set the same limits; these win over env.\n")
	sb.WriteString("# triggers:\n")
	sb.WriteString("#   hourly-request-limit: 60\n")
	sb.WriteString("#   cost-budget-usd: 5.0\n")

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
