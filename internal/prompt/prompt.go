// internal/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tamzrod/modbus-armcheck/internal/scenario"
)

// ErrQuit is returned when the user asks to leave the menu.
var ErrQuit = errors.New("prompt: quit")

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Prompter asks for a scenario on a line-oriented terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

var menu = []struct {
	label string
	kind  scenario.Kind
}{
	{"Run one subroutine", scenario.KindSingle},
	{"Run every subroutine from 0 up to n", scenario.KindUpTo},
	{"Run an out-of-range subroutine", scenario.KindOutOfBounds},
	{"Early stop: one subroutine, one delay", scenario.KindEarlyStop},
	{"Early stop: every subroutine up to n, one delay", scenario.KindEarlyStopUpTo},
	{"Early stop: one subroutine, increasing delays", scenario.KindEarlyStopSweep},
}

// Scenario asks for a kind and whatever parameters it needs.
func (p *Prompter) Scenario() (scenario.Scenario, error) {
	fmt.Fprintln(p.out, "Select a test:")
	for i, m := range menu {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, m.label)
	}
	fmt.Fprintln(p.out, "  q) Quit")

	var sc scenario.Scenario
	for {
		line, err := p.ask("> ")
		if err != nil {
			return sc, err
		}
		if line == "q" || line == "quit" {
			return sc, ErrQuit
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(menu) {
			sc.Kind = menu[n-1].kind
			break
		}
		fmt.Fprintf(p.out, "choose 1-%d or q\n", len(menu))
	}

	var err error
	switch sc.Kind {
	case scenario.KindSingle, scenario.KindEarlyStop, scenario.KindEarlyStopSweep:
		sc.Index, err = p.u16("Subroutine index: ")
	case scenario.KindUpTo, scenario.KindEarlyStopUpTo:
		sc.Index, err = p.u16("Last subroutine index (inclusive): ")
	}
	if err != nil {
		return sc, err
	}

	if sc.Kind == scenario.KindEarlyStop || sc.Kind == scenario.KindEarlyStopUpTo {
		var ms uint16
		ms, err = p.u16("Delay after enable before cancelling (ms): ")
		sc.Delay = time.Duration(ms) * time.Millisecond
	}
	return sc, err
}

// Again asks whether to run another scenario.
func (p *Prompter) Again() bool {
	line, err := p.ask("Run another test? [y/N] ")
	if err != nil {
		return false
	}
	return line == "y" || line == "yes"
}

func (p *Prompter) u16(label string) (uint16, error) {
	for {
		line, err := p.ask(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseUint(line, 10, 16)
		if err == nil {
			return uint16(v), nil
		}
		fmt.Fprintln(p.out, "enter a number between 0 and 65535")
	}
}

// ask prints label and returns the next trimmed, lower-cased line.
// EOF on an empty line is reported as ErrQuit.
func (p *Prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return line, nil
			}
			return "", ErrQuit
		}
		return "", err
	}
	return line, nil
}
