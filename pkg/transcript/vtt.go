package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// VTTExtension marks WebVTT caption exports, which are converted to text
// before upload.
const VTTExtension = ".vtt"

var (
	// 1 "Speaker Name" (1262511360), as exported by meeting recorders.
	vttCueHeaderRegex = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\((\d+)\))?`)

	// 00:00:05.579 --> 00:00:06.858, hours optional.
	vttTimingRegex = regexp.MustCompile(`^((?:\d+:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d+:)?\d{2}:\d{2}\.\d{3})`)

	// <v Speaker Name>text</v>
	vttVoiceRegex = regexp.MustCompile(`^<v(?:\.[^ >]+)*\s+([^>]+)>(.*)$`)

	vttTagRegex = regexp.MustCompile(`</?[^>]+>`)
)

// Cue is one caption block.
type Cue struct {
	Speaker string
	Text    string
	StartMs int
	EndMs   int
}

// Captions is a parsed WebVTT file.
type Captions struct {
	Cues     []Cue
	Speakers []string
	// DurationMs is the end of the last cue.
	DurationMs int
}

// ParseVTT reads WebVTT captions. Speakers come from numbered cue headers
// with a quoted name or from <v> voice tags; cues without a speaker keep an
// empty one. NOTE blocks and cue settings are ignored.
func ParseVTT(r io.Reader) (*Captions, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	c := &Captions{Cues: make([]Cue, 0), Speakers: make([]string, 0)}
	seen := make(map[string]bool)

	var cur *Cue
	inNote := false
	flush := func() {
		if cur != nil && cur.Text != "" {
			if cur.Speaker != "" && !seen[cur.Speaker] {
				seen[cur.Speaker] = true
				c.Speakers = append(c.Speakers, cur.Speaker)
			}
			c.Cues = append(c.Cues, *cur)
		}
		cur = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		if line == "" {
			inNote = false
			continue
		}
		if inNote || strings.HasPrefix(line, "WEBVTT") {
			continue
		}
		if line == "NOTE" || strings.HasPrefix(line, "NOTE ") {
			inNote = true
			continue
		}

		if m := vttCueHeaderRegex.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Cue{Speaker: strings.TrimSpace(m[1])}
			continue
		}

		if m := vttTimingRegex.FindStringSubmatch(line); m != nil {
			if cur == nil || cur.Text != "" {
				flush()
				cur = &Cue{}
			}
			cur.StartMs = vttMillis(m[1])
			cur.EndMs = vttMillis(m[2])
			if cur.EndMs > c.DurationMs {
				c.DurationMs = cur.EndMs
			}
			continue
		}

		if cur == nil {
			// Bare cue identifier before a timing line.
			continue
		}

		text := line
		if m := vttVoiceRegex.FindStringSubmatch(line); m != nil {
			cur.Speaker = strings.TrimSpace(m[1])
			text = m[2]
		}
		text = strings.TrimSpace(vttTagRegex.ReplaceAllString(text, ""))
		if text == "" {
			continue
		}
		if cur.Text != "" {
			cur.Text += " "
		}
		cur.Text += text
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading captions: %w", err)
	}
	return c, nil
}

// Text renders the captions as transcript lines of the form
// "m:ss : Speaker : text". Consecutive cues from the same speaker are merged;
// cues without a speaker become plain lines.
func (c *Captions) Text() string {
	var b strings.Builder
	for i := 0; i < len(c.Cues); {
		cue := c.Cues[i]
		text := cue.Text
		j := i + 1
		for cue.Speaker != "" && j < len(c.Cues) && c.Cues[j].Speaker == cue.Speaker {
			text += " " + c.Cues[j].Text
			j++
		}

		if cue.Speaker == "" {
			b.WriteString(text)
		} else {
			fmt.Fprintf(&b, "%s : %s : %s", clock(cue.StartMs), cue.Speaker, text)
		}
		b.WriteByte('\n')
		i = j
	}
	return b.String()
}

// clock formats milliseconds as m:ss.
func clock(ms int) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// vttMillis parses HH:MM:SS.mmm or MM:SS.mmm.
func vttMillis(ts string) int {
	parts := strings.Split(ts, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0
	}

	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	sec, frac, _ := strings.Cut(parts[2], ".")
	seconds, _ := strconv.Atoi(sec)
	millis, _ := strconv.Atoi(frac)

	return hours*3600000 + minutes*60000 + seconds*1000 + millis
}
