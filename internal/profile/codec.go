// Package profile holds profiling samples and their wire and file formats.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Message prefixes on a task's private queue.
const (
	ProfilePrefix  = "PROFILE:"
	SchedulePrefix = "SCHEDULE:"
)

// ErrMalformedReport is returned for profile reports that do not carry five valid fields.
var ErrMalformedReport = errors.New("malformed profiling report")

// Sample is one measured configuration of a task.
type Sample struct {
	ThreadCount   int     `json:"thread_count"`
	Throughput    float64 `json:"throughput"`
	FLOPS         float64 `json:"flops"`
	CacheMissRate float64 `json:"cache_miss_rate"`
	MemBW         float64 `json:"mem_bw"`
}

// Kind classifies a message received on a private queue.
type Kind int

const (
	KindOther Kind = iota
	KindProfile
	KindSchedule
)

func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindSchedule:
		return "schedule"
	default:
		return "other"
	}
}

// Classify reports the kind of msg by its textual prefix.
func Classify(msg []byte) Kind {
	switch {
	case bytes.HasPrefix(msg, []byte(ProfilePrefix)):
		return KindProfile
	case bytes.HasPrefix(msg, []byte(SchedulePrefix)):
		return KindSchedule
	default:
		return KindOther
	}
}

// ParseReport decodes "PROFILE:<threads>,<throughput>,<flops>,<cache_miss_rate>,<mem_bw>".
// Only the first five fields are read; anything after the fifth number,
// including further fields, is ignored.
func ParseReport(msg []byte) (Sample, error) {
	body, ok := bytes.CutPrefix(trim(msg), []byte(ProfilePrefix))
	if !ok {
		return Sample{}, fmt.Errorf("%w: missing %q prefix", ErrMalformedReport, ProfilePrefix)
	}

	fields := strings.SplitN(string(body), ",", 6)
	if len(fields) < 5 {
		return Sample{}, fmt.Errorf("%w: want 5 fields, got %d", ErrMalformedReport, len(fields))
	}

	threads, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || threads < 0 {
		return Sample{}, fmt.Errorf("%w: thread count %q", ErrMalformedReport, fields[0])
	}

	var vals [4]float64
	for i := range vals {
		tok := strings.TrimSpace(fields[i+1])
		if i == len(vals)-1 {
			tok = leadingNumber(tok)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("%w: field %d %q", ErrMalformedReport, i+2, fields[i+1])
		}
		vals[i] = v
	}

	return Sample{
		ThreadCount:   threads,
		Throughput:    vals[0],
		FLOPS:         vals[1],
		CacheMissRate: vals[2],
		MemBW:         vals[3],
	}, nil
}

// leadingNumber returns the longest prefix of s that reads as a decimal
// floating-point number: optional sign, digits with an optional fraction,
// and an optional exponent.
func leadingNumber(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return s
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return s[:i]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// FormatReport encodes s as a PROFILE message.
func FormatReport(s Sample) []byte {
	return append([]byte(ProfilePrefix), formatFields(s)...)
}

// FormatDecision encodes a SCHEDULE message.
func FormatDecision(threads, core int) []byte {
	return []byte(fmt.Sprintf("%s%d,%d", SchedulePrefix, threads, core))
}

func formatFields(s Sample) string {
	return strings.Join(record(s), ",")
}

// record renders s in report field order with six decimals per float.
func record(s Sample) []string {
	return []string{
		strconv.Itoa(s.ThreadCount),
		strconv.FormatFloat(s.Throughput, 'f', 6, 64),
		strconv.FormatFloat(s.FLOPS, 'f', 6, 64),
		strconv.FormatFloat(s.CacheMissRate, 'f', 6, 64),
		strconv.FormatFloat(s.MemBW, 'f', 6, 64),
	}
}

// trim drops C-string padding and surrounding whitespace from a raw payload.
func trim(msg []byte) []byte {
	if i := bytes.IndexByte(msg, 0); i >= 0 {
		msg = msg[:i]
	}
	return bytes.TrimSpace(msg)
}
