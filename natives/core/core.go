// Package core registers the built-in global functions.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rubiojr/lox/natives"
	"github.com/rubiojr/lox/runtime"
)

func init() {
	natives.Register(&natives.Module{
		Name: "core",
		Doc:  "Clock, conversion and string helpers available in every program.",
		Funcs: []natives.FuncDef{
			{Name: "clock", Doc: "Seconds since the Unix epoch.", Fn: clock},
			{Name: "str", Args: []natives.ArgType{natives.Any}, Doc: "Converts any value to its printed form.", Fn: str},
			{Name: "num", Args: []natives.ArgType{natives.String}, Doc: "Parses a decimal number.", Fn: num},
			{Name: "len", Args: []natives.ArgType{natives.String}, Doc: "Number of characters in a string.", Fn: length},
		},
	})
}

func clock(_ []runtime.Value) (runtime.Value, error) {
	return runtime.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

func str(args []runtime.Value) (runtime.Value, error) {
	return runtime.String(runtime.Format(args[0])), nil
}

func num(args []runtime.Value) (runtime.Value, error) {
	s := strings.TrimSpace(string(args[0].(runtime.String)))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("num: cannot convert %q to a number.", s)
	}
	return runtime.Number(n), nil
}

func length(args []runtime.Value) (runtime.Value, error) {
	return runtime.Number(utf8.RuneCountInString(string(args[0].(runtime.String)))), nil
}
