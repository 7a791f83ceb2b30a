package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// LinePrompter asks questions one line at a time. It works the same on a
// terminal and on piped input; the end of input is reported as io.EOF.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *LinePrompter) Confirm(source, destination string) (string, error) {
	fmt.Fprintf(p.out, "\n%s\n  %s %s\n", Path(filepath.Base(source)), Dim("→"), Target(destination))
	fmt.Fprint(p.out, Prompt("Rename? [y]es [n]o [a]lways [s]kip [q]uit: "))
	return p.readLine()
}

func (p *LinePrompter) Choose(source, question string, candidates []string) (string, error) {
	fmt.Fprintf(p.out, "\n%s\n%s:\n", Path(filepath.Base(source)), question)
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  %s %s\n", Dim(fmt.Sprintf("[%d]", i+1)), c)
	}
	fmt.Fprint(p.out, Prompt(fmt.Sprintf("Choose 1-%d, [s]kip or [q]uit: ", len(candidates))))
	return p.readLine()
}

func (p *LinePrompter) Invalid(answer string) {
	fmt.Fprintf(p.out, "%s %q is not a valid answer\n", Warning("⚠"), answer)
}

// AskYesNo asks a y/N question. Anything but yes is no.
func (p *LinePrompter) AskYesNo(question string) (bool, error) {
	fmt.Fprint(p.out, Prompt(question+" (y/N): "))
	answer, err := p.readLine()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		fmt.Fprintln(p.out)
		return "", err
	}
	return strings.TrimSpace(line), nil
}
