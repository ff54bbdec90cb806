package transcript

import (
	"regexp"
	"strings"
)

var (
	// 0:11 : Speaker Name : text
	timedLineRegex = regexp.MustCompile(`^(\d+):(\d{2})\s*:\s*([^:]+?)\s*:\s*(.+)$`)

	// Speaker Name: text
	speakerLineRegex = regexp.MustCompile(`^([A-Z][\p{L}0-9 .'\-]{0,40}?)\s*:\s+\S`)

	actionItemRegex = regexp.MustCompile(`(?i)\b(action items?|todo|to-do|follow[- ]up|next steps?|assigned to)\b`)
)

// Stats are display heuristics computed from transcript text.
type Stats struct {
	Words       int      `json:"words" yaml:"words"`
	Lines       int      `json:"lines" yaml:"lines"`
	Speakers    []string `json:"speakers" yaml:"speakers"`
	ActionItems int      `json:"action_items" yaml:"action_items"`
}

// Analyze scans text line by line. Speakers are listed in order of first appearance.
func Analyze(text string) Stats {
	stats := Stats{Speakers: make([]string, 0)}
	seen := make(map[string]bool)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		stats.Lines++
		stats.Words += len(strings.Fields(line))

		if actionItemRegex.MatchString(line) {
			stats.ActionItems++
		}

		speaker := speakerOf(line)
		if speaker != "" && !seen[speaker] {
			seen[speaker] = true
			stats.Speakers = append(stats.Speakers, speaker)
		}
	}

	return stats
}

func speakerOf(line string) string {
	if m := timedLineRegex.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[3])
	}
	if m := speakerLineRegex.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
