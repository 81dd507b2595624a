// Package repl implements the interactive session loop around an
// engine: read a line, evaluate it, print the table.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/codd-lang/codd"
)

const DefaultPrompt = "codd> "

type REPL struct {
	Engine *codd.Engine
	In     io.Reader
	Out    io.Writer
	Prompt string
}

func New(e *codd.Engine, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		Engine: e,
		In:     in,
		Out:    out,
		Prompt: DefaultPrompt,
	}
}

// Run reads statements until end of input or a quit command. Lines
// starting with a backslash are session commands; everything else goes
// to the engine. Evaluation errors are printed, not returned.
func (r *REPL) Run() error {
	scanner := bufio.NewScanner(r.In)
	for {
		fmt.Fprint(r.Out, r.Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.Out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "\\") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		result, err := r.Engine.Run(line)
		if err != nil {
			fmt.Fprintf(r.Out, "Error: %s\n\n", err)
			continue
		}
		fmt.Fprintf(r.Out, "%s\n\n", codd.FormatResult(result))
	}
}

func (r *REPL) command(line string) bool {
	switch line {
	case "\\quit", "\\q":
		return true
	case "\\load":
		r.Engine.LoadSample()
		fmt.Fprintf(r.Out, "Loaded: E (Employee), D (Department), Phone, ContractorPay\n\n")
	case "\\env":
		env := r.Engine.Env()
		names := env.Names()
		if len(names) == 0 {
			fmt.Fprintf(r.Out, "(no relations loaded)\n\n")
			return false
		}
		for _, name := range names {
			rel, _ := env.Get(name)
			fmt.Fprintf(r.Out, "  %s: %d tuples, attrs: [%s]\n",
				name, rel.Len(), strings.Join(rel.Attrs(), " "))
		}
		fmt.Fprintln(r.Out)
	default:
		fmt.Fprintf(r.Out, "Unknown command: %s\n\n", line)
	}
	return false
}
