package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrNoTerminal = errors.New("cannot ask for confirmation without a terminal; pass --yes to confirm")

// Prompt asks yes/no questions on a terminal.
type Prompt struct {
	reader     *bufio.Reader
	out        io.Writer
	isTerminal bool
}

func NewPrompt(in *os.File, out io.Writer) *Prompt {
	return &Prompt{
		reader:     bufio.NewReader(in),
		out:        out,
		isTerminal: term.IsTerminal(int(in.Fd())),
	}
}

// Confirm keeps asking until the answer is yes or no. End of input is a no.
func (p *Prompt) Confirm(message string) (bool, error) {
	if !p.isTerminal {
		return false, ErrNoTerminal
	}
	for {
		if _, err := fmt.Fprintf(p.out, "%s %s ", message, hint.Render("(yes/no)")); err != nil {
			return false, err
		}
		line, err := p.reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("could not read answer: %w", err)
		}
	}
}
