// Package program implements the textual preprocessor and CDT-table loader
// that sit in front of the instruction decoder: `define`/`ifdef`/`endif`
// gating, `#` comment stripping, label resolution, and the structural
// checks (config first, end present) spec section 6 requires of a program
// file before it can be handed to the machine.
package program

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sapphirecore/coresim/pkg/isa"
)

// Program is a fully preprocessed instruction stream: directives and
// comments already stripped, labels already resolved to indices into
// Instructions[1:] (the instructions after the leading config, which is
// the slice the machine executes).
type Program struct {
	Instructions []isa.Instruction
	Labels       map[string]int
	Warnings     []string
}

// Fault reports a preprocessing or decode error with enough context to
// reproduce it: the 1-based source line number and the verbatim line text.
type Fault struct {
	Line int
	Text string
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("line %d: %s: %q", f.Line, f.Msg, f.Text)
}

// Load reads, preprocesses, and decodes a program from r.
func Load(r io.Reader) (*Program, error) {
	defines := map[string]string{}
	var ifdefStack []bool

	type rawLine struct {
		no   int
		text string
	}
	var active []rawLine

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		enabled := true
		for _, v := range ifdefStack {
			if !v {
				enabled = false
				break
			}
		}

		if strings.HasPrefix(line, "`") {
			directive := line[1:]
			switch {
			case strings.HasPrefix(directive, "define "):
				if !enabled {
					continue
				}
				rest := strings.TrimSpace(strings.TrimPrefix(directive, "define "))
				parts := strings.SplitN(rest, " ", 2)
				if len(parts) != 2 {
					return nil, &Fault{lineNo, line, "`define requires a name and a value"}
				}
				defines[parts[0]] = strings.TrimSpace(parts[1])
			case strings.HasPrefix(directive, "ifdef "):
				name := strings.TrimSpace(strings.TrimPrefix(directive, "ifdef "))
				_, defined := defines[name]
				ifdefStack = append(ifdefStack, defined)
			case directive == "endif":
				if len(ifdefStack) == 0 {
					return nil, &Fault{lineNo, line, "`endif without matching `ifdef"}
				}
				ifdefStack = ifdefStack[:len(ifdefStack)-1]
			default:
				return nil, &Fault{lineNo, line, "unrecognized preprocessor directive"}
			}
			continue
		}

		if !enabled {
			continue
		}

		for name, val := range defines {
			line = strings.ReplaceAll(line, name, val)
		}

		active = append(active, rawLine{lineNo, line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	if len(ifdefStack) != 0 {
		return nil, fmt.Errorf("unterminated `ifdef block (%d level(s) still open)", len(ifdefStack))
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("empty program")
	}

	first, err := isa.ParseLine(active[0].no, active[0].text)
	if err != nil {
		return nil, err
	}
	if first.Kind != isa.KindConfig {
		return nil, &Fault{active[0].no, active[0].text, "program must begin with config(...)"}
	}

	prog := &Program{Labels: map[string]int{}}
	for _, rl := range active {
		inst, err := isa.ParseLine(rl.no, rl.text)
		if err != nil {
			return nil, err
		}
		if inst.Kind == isa.KindLabel {
			label := inst.Str("label")
			if _, exists := prog.Labels[label]; exists {
				return nil, &Fault{rl.no, rl.text, fmt.Sprintf("duplicate label %q", label)}
			}
			// Instructions[0] is always config, so this is the index of the
			// next instruction within Instructions[1:].
			prog.Labels[label] = len(prog.Instructions) - 1
			continue
		}
		prog.Instructions = append(prog.Instructions, inst)
	}

	if len(prog.Instructions) == 0 || prog.Instructions[len(prog.Instructions)-1].Kind != isa.KindEnd {
		prog.Warnings = append(prog.Warnings, "program did not end with `end`; appending one")
		prog.Instructions = append(prog.Instructions, isa.Instruction{
			Kind: isa.KindEnd,
			Line: prog.Instructions[len(prog.Instructions)-1].Line + 1,
			Raw:  "end",
			Args: map[string]string{},
		})
	}

	for _, inst := range prog.Instructions {
		if inst.Kind == isa.KindBranch {
			if _, ok := prog.Labels[inst.Str("label")]; !ok {
				return nil, &Fault{inst.Line, inst.Raw, fmt.Sprintf("goto target %q undefined", inst.Str("label"))}
			}
		}
	}

	return prog, nil
}

// LoadCDT reads a discrete-Gaussian cumulative distribution table: one
// decimal integer per line, length at most 64 entries, used by cdt_sample.
func LoadCDT(r io.Reader) ([]int64, error) {
	var table []int64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cdt file line %d: %q is not an integer: %w", lineNo, text, err)
		}
		table = append(table, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cdt file: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("cdt file is empty")
	}
	if len(table) > 64 {
		return nil, fmt.Errorf("cdt file has %d entries, maximum is 64", len(table))
	}
	return table, nil
}
