// Package golden runs annotated Lox scripts and compares what they do with
// what their comments say they should do.
//
// Annotations are line comments:
//
//	print 1 + 2; // expect: 3
//	nil.x;       // expect runtime error: Only instances have properties.
//	return 1;    // expect error: Can't return from top-level code.
//
// A static error normally belongs to the line carrying the comment. A
// "[line N]" prefix on the message names another line, for errors such as
// an unterminated string that swallow the rest of their own line.
package golden

import (
	"regexp"
	"strconv"
	"strings"
)

// StaticError is an expected lexical, syntax or resolution error.
type StaticError struct {
	Line    int
	Message string
}

// RuntimeError is an expected runtime failure.
type RuntimeError struct {
	Line    int
	Message string
}

// Expectations collects every annotation of one script.
type Expectations struct {
	Output       []string
	StaticErrors []StaticError
	RuntimeError *RuntimeError
}

var (
	expectOutput  = regexp.MustCompile(`// expect: ?(.*)$`)
	expectRuntime = regexp.MustCompile(`// expect runtime error: (.+)$`)
	expectStatic  = regexp.MustCompile(`// expect error: (?:\[line (\d+)\] )?(.+)$`)
)

// ParseExpectations scans src for annotations.
func ParseExpectations(src string) *Expectations {
	exp := &Expectations{}
	for n, line := range strings.Split(src, "\n") {
		lineNo := n + 1
		line = strings.TrimRight(line, "\r")
		if m := expectRuntime.FindStringSubmatch(line); m != nil {
			exp.RuntimeError = &RuntimeError{Line: lineNo, Message: m[1]}
			continue
		}
		if m := expectStatic.FindStringSubmatch(line); m != nil {
			at := lineNo
			if m[1] != "" {
				at, _ = strconv.Atoi(m[1])
			}
			exp.StaticErrors = append(exp.StaticErrors, StaticError{Line: at, Message: m[2]})
			continue
		}
		if m := expectOutput.FindStringSubmatch(line); m != nil {
			exp.Output = append(exp.Output, m[1])
		}
	}
	return exp
}
