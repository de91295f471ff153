package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	seqRe     = regexp.MustCompile(`-\s*(\d+)$`)
	floorRe   = regexp.MustCompile(`(?i)(\d+)\s*F?$`)
	compactRe = regexp.MustCompile(`(\d+)$`)
)

// ParsedRoom holds the structured parts of a room number.
type ParsedRoom struct {
	Number string // normalized form, used as the unique key
	Wing   string
	Floor  int
	Seq    int
}

// NormalizeRoomNumber returns the canonical key form of a room number: '#'
// treated as a space, whitespace collapsed and trimmed, letters upper-cased.
func NormalizeRoomNumber(raw string) string {
	s := strings.ReplaceAll(raw, "#", " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	return strings.ToUpper(s)
}

// ParseRoomNumber normalizes a raw room number and derives its floor.
//
// Accepted shapes:
//
//	"101"      floor 1, seq 1
//	"a 1203"   wing A, floor 12, seq 3
//	"B2-07"    wing B, floor 2, seq 7
//	"East 3F-12"
//
// Numbers of one or two digits are ground floor rooms.
func ParseRoomNumber(raw string) (ParsedRoom, error) {
	s := NormalizeRoomNumber(raw)
	if s == "" {
		return ParsedRoom{}, fmt.Errorf("room number is empty")
	}

	// 1) explicit "-seq" suffix: the floor is the number before the dash
	if loc := seqRe.FindStringSubmatchIndex(s); loc != nil {
		seq, err := strconv.Atoi(s[loc[2]:loc[3]])
		if err != nil {
			return ParsedRoom{}, fmt.Errorf("invalid sequence in room number %q: %w", raw, err)
		}
		body := strings.TrimSpace(s[:loc[0]])
		floorLoc := floorRe.FindStringSubmatchIndex(body)
		if floorLoc == nil {
			return ParsedRoom{}, fmt.Errorf("unable to parse floor from room number %q", raw)
		}
		floor, err := strconv.Atoi(body[floorLoc[2]:floorLoc[3]])
		if err != nil {
			return ParsedRoom{}, fmt.Errorf("invalid floor in room number %q: %w", raw, err)
		}
		return ParsedRoom{
			Number: s,
			Wing:   strings.TrimSpace(body[:floorLoc[0]]),
			Floor:  floor,
			Seq:    seq,
		}, nil
	}

	// 2) compact form: trailing digits are floor followed by a two digit sequence
	loc := compactRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room number %q", raw)
	}
	digits := s[loc[2]:loc[3]]
	wing := strings.TrimSpace(s[:loc[0]])

	if len(digits) <= 2 {
		seq, _ := strconv.Atoi(digits)
		return ParsedRoom{Number: s, Wing: wing, Floor: 0, Seq: seq}, nil
	}

	floor, err := strconv.Atoi(digits[:len(digits)-2])
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("invalid floor in room number %q: %w", raw, err)
	}
	seq, _ := strconv.Atoi(digits[len(digits)-2:])
	return ParsedRoom{Number: s, Wing: wing, Floor: floor, Seq: seq}, nil
}
