package lyrics

import (
	"bufio"
	"cmp"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Regular expressions for parsing LRC format
var (
	// Matches timestamps like [00:12.34], [00:12.345], [00:12:34] or [00:12]
	timestampRe = regexp.MustCompile(`\[(\d+):(\d+)(?:[.:](\d+))?\]`)

	// Matches metadata tags like [ar:Artist Name]
	metadataRe = regexp.MustCompile(`^\[([a-z]+):(.+)\]$`)
)

// ParseLRC parses LRC format lyrics from a reader. Lines without a
// timestamp are skipped; a sheet with no timed line yields an empty
// document, not an error.
func ParseLRC(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if meta := metadataRe.FindStringSubmatch(line); meta != nil {
			value := strings.TrimSpace(meta[2])
			switch meta[1] {
			case "ar":
				doc.Artist = value
			case "ti":
				doc.Title = value
			case "al":
				doc.Album = value
			case "length":
				if d, ok := parseClock(value); ok {
					doc.Length = d
				}
			}
			continue
		}

		// LRC can have multiple timestamps for the same text: [00:12.34][00:45.67]Text
		matches := timestampRe.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 {
			continue
		}

		lastMatch := matches[len(matches)-1]
		text := strings.TrimSpace(line[lastMatch[1]:])

		for _, m := range matches {
			ts, ok := parseTimestamp(line[m[2]:m[3]], line[m[4]:m[5]], fraction(line, m))
			if !ok {
				continue
			}
			doc.Lines = append(doc.Lines, Line{Time: ts, Text: text})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Stable so that equal stamps keep their file order.
	slices.SortStableFunc(doc.Lines, func(a, b Line) int {
		return cmp.Compare(a.Time, b.Time)
	})

	return doc, nil
}

// ParsePlain parses untimed lyrics: every non-blank line at zero, in file
// order.
func ParsePlain(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		doc.Lines = append(doc.Lines, Line{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

func fraction(line string, m []int) string {
	if m[6] < 0 {
		return ""
	}
	return line[m[6]:m[7]]
}

// parseTimestamp turns the captured minutes, seconds and fraction of a
// timestamp into a duration. One fraction digit is tenths, two are
// hundredths and three are milliseconds; longer fractions are truncated.
func parseTimestamp(mm, ss, frac string) (time.Duration, bool) {
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(ss)
	if err != nil {
		return 0, false
	}

	var millis int
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		millis, err = strconv.Atoi(frac)
		if err != nil {
			return 0, false
		}
		switch len(frac) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10
		}
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, true
}

// parseClock parses an MM:SS length header.
func parseClock(s string) (time.Duration, bool) {
	mm, ss, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	return parseTimestamp(strings.TrimSpace(mm), strings.TrimSpace(ss), "")
}
