// Package diag carries the diagnostics produced by the static phases of the
// interpreter (scanning, parsing and resolution) and the phase taxonomy
// shared with runtime errors.
package diag

import (
	"errors"
	"fmt"
	gotoken "go/token"
	"io"
	"iter"
	"slices"
	"sort"

	"modernc.org/scanner"
	"modernc.org/token"
)

// Phase identifies the pipeline stage that produced a diagnostic.
type Phase int

const (
	Lexical Phase = iota
	Syntax
	Resolution
	Runtime
)

func (p Phase) String() string {
	switch p {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Resolution:
		return "resolution"
	case Runtime:
		return "runtime"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Diagnostic is the error stored in each List entry. Pos repeats the entry
// position so a Diagnostic can be inspected on its own.
type Diagnostic struct {
	Phase   Phase
	Pos     token.Position
	Where   string // " at 'x'", " at end" or empty
	Message string
}

// Error formats d without its position; the enclosing
// scanner.ErrWithPosition prefixes it.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s error%s: %s", d.Phase, d.Where, d.Message)
}

// List accumulates diagnostics. It is a scanner.ErrList whose entries carry
// a *Diagnostic, so it prints and deduplicates the way the modernc tools do.
// The zero value is ready to use.
type List scanner.ErrList

// Add appends a diagnostic.
func (l *List) Add(phase Phase, pos token.Position, where, msg string) {
	*l = append(*l, scanner.ErrWithPosition{
		Pos: gotoken.Position(pos),
		Err: &Diagnostic{Phase: phase, Pos: pos, Where: where, Message: msg},
	})
}

// Append merges other into l.
func (l *List) Append(other List) {
	*l = append(*l, other...)
}

func (l List) Len() int { return len(l) }

// At returns the i-th diagnostic. Entries added through
// scanner.ErrList.AddErr are reported as syntax errors.
func (l List) At(i int) *Diagnostic {
	var d *Diagnostic
	if errors.As(l[i].Err, &d) {
		return d
	}
	return &Diagnostic{Phase: Syntax, Pos: token.Position(l[i].Pos), Message: l[i].Err.Error()}
}

// All yields the diagnostics in list order.
func (l List) All() iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		for i := range l {
			if !yield(l.At(i)) {
				return
			}
		}
	}
}

// Sort orders diagnostics by file offset, keeping report order for ties.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Pos.Filename != l[j].Pos.Filename {
			return l[i].Pos.Filename < l[j].Pos.Filename
		}
		return l[i].Pos.Offset < l[j].Pos.Offset
	})
}

// Has reports whether any diagnostic belongs to phase.
func (l List) Has(phase Phase) bool {
	for d := range l.All() {
		if d.Phase == phase {
			return true
		}
	}
	return false
}

// Error prints one entry per line. scanner.ErrList compacts the slice it
// formats, so it works on a copy.
func (l List) Error() string {
	return scanner.ErrList(slices.Clone(l)).Error()
}

// Err returns l as an error, or nil when l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Fprint writes one diagnostic per line to w.
func Fprint(w io.Writer, l List) {
	for _, e := range l {
		fmt.Fprintln(w, e.Error())
	}
}
