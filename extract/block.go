// Package extract recovers structured session items from free-form model
// output. The block layer is purely textual delimited-substring extraction;
// the response layer applies the fixed tag vocabulary (knowledge, work,
// target) on top of it and guarantees that every response yields at least
// one item.
package extract

import "strings"

// Block finds the content strictly between the first occurrence of start and
// the last occurrence of end at or after it. The boolean is false when either
// marker is missing or the end precedes the content start; callers must check
// it before using the content (an empty extraction is valid and distinct
// from a failed one).
//
// Extraction is purely textual: no escaping, no recursion into the extracted
// content, no knowledge of markup semantics.
func Block(buf, start, end string) (string, bool) {
	i := strings.Index(buf, start)
	if i < 0 {
		return "", false
	}
	contentStart := i + len(start)
	j := strings.LastIndex(buf, end)
	if j < 0 || j < contentStart {
		return "", false
	}
	return buf[contentStart:j], true
}

// markerEvent is one marker occurrence in the merged position-sorted stream.
type markerEvent struct {
	pos     int
	isStart bool
}

// Blocks scans all occurrences of both markers, merges them into one
// position-sorted stream and pairs them greedily left to right. Consecutive
// start events before a matching end collapse into a single open, so nested
// or duplicated start markers yield the outermost pair with the inner
// markers kept as content. An end event with no open is ignored. The result
// is the sequence of well-formed, non-overlapping matches in source order;
// malformed tagging never causes an error, only fewer matches.
func Blocks(buf, start, end string) []string {
	events := mergeEvents(findAll(buf, start), findAll(buf, end))

	var out []string
	open := -1
	for _, ev := range events {
		if ev.isStart {
			if open < 0 {
				open = ev.pos + len(start)
			}
			continue
		}
		if open >= 0 && ev.pos >= open {
			out = append(out, buf[open:ev.pos])
			open = -1
		}
	}
	return out
}

// findAll returns the byte offsets of every non-overlapping occurrence of
// marker in buf.
func findAll(buf, marker string) []int {
	if marker == "" {
		return nil
	}
	var offsets []int
	for from := 0; ; {
		i := strings.Index(buf[from:], marker)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, from+i)
		from += i + len(marker)
	}
}

// mergeEvents merges two ascending offset lists into one ordered event
// stream. At equal positions the start event sorts first.
func mergeEvents(starts, ends []int) []markerEvent {
	events := make([]markerEvent, 0, len(starts)+len(ends))
	si, ei := 0, 0
	for si < len(starts) || ei < len(ends) {
		switch {
		case ei >= len(ends):
			events = append(events, markerEvent{pos: starts[si], isStart: true})
			si++
		case si >= len(starts):
			events = append(events, markerEvent{pos: ends[ei]})
			ei++
		case starts[si] <= ends[ei]:
			events = append(events, markerEvent{pos: starts[si], isStart: true})
			si++
		default:
			events = append(events, markerEvent{pos: ends[ei]})
			ei++
		}
	}
	return events
}
