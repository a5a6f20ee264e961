package captions

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	cueTimingRe = regexp.MustCompile(`^\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)
	tagRe       = regexp.MustCompile(`<[^>]+>|\{\\[^}]*\}`)
)

// Parse dispatches on the file extension (.srt or .vtt).
func Parse(path string, r io.Reader) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return ParseSRT(r)
	case ".vtt":
		return ParseVTT(r)
	default:
		return nil, fmt.Errorf("unsupported caption format: %s", path)
	}
}

// ParseSRT reads SubRip cues. Styling tags are stripped and multi-line cue
// text is joined with a newline.
func ParseSRT(r io.Reader) ([]Entry, error) {
	return parseCues(r)
}

// ParseVTT reads WebVTT cues. The header, NOTE/STYLE/REGION blocks and cue
// settings after the timing line are ignored.
func ParseVTT(r io.Reader) ([]Entry, error) {
	return parseCues(r)
}

// parseCues handles both formats: a cue is a timing line followed by text
// lines up to a blank line. Anything before a timing line (indices, ids,
// headers) is skipped.
func parseCues(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		out  []Entry
		cur  *Entry
		text []string
	)
	flush := func() {
		if cur != nil && len(text) > 0 {
			cur.Text = strings.Join(text, "\n")
			out = append(out, *cur)
		}
		cur, text = nil, nil
	}

	first := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}

		if m := cueTimingRe.FindStringSubmatch(line); m != nil {
			flush()
			start, err := parseCueTime(m[1])
			if err != nil {
				return nil, err
			}
			end, err := parseCueTime(m[2])
			if err != nil {
				return nil, err
			}
			cur = &Entry{Start: start, End: end}
			continue
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if cur == nil {
			continue
		}
		if clean := strings.TrimSpace(tagRe.ReplaceAllString(line, "")); clean != "" {
			text = append(text, clean)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	flush()
	return out, nil
}

// parseCueTime accepts HH:MM:SS,mmm, HH:MM:SS.mmm and MM:SS.mmm.
func parseCueTime(s string) (time.Duration, error) {
	s = strings.Replace(s, ",", ".", 1)
	parts := strings.Split(s, ":")

	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("bad cue time %q: %w", s, err)
		}
		total = total*60 + v
	}
	return time.Duration(total*1000+0.5) * time.Millisecond, nil
}

// WriteSRT writes entries as a SubRip document numbered from 1.
func WriteSRT(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, e := range entries {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(e.Start), srtTime(e.End), e.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func srtTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}
