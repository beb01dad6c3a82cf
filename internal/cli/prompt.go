package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// promptPassword reads a secret from the terminal without echo.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("a password is required but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// prompter asks line-based questions with defaults shown in brackets.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// String returns the trimmed answer, or def on an empty line or EOF.
func (p *prompter) String(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, _ := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// Int re-asks until the answer is a positive integer.
func (p *prompter) Int(label string, def int) int {
	for {
		answer := p.String(label, strconv.Itoa(def))
		v, err := strconv.Atoi(answer)
		if err == nil && v > 0 {
			return v
		}
		fmt.Fprintln(p.out, "  Please enter a positive whole number")
		if _, err := p.in.Peek(1); err != nil {
			return def
		}
	}
}

// Confirm returns true for y/yes. Anything else, including EOF, is no.
func (p *prompter) Confirm(label string) bool {
	answer := strings.ToLower(p.String(label+" [y/N]", ""))
	return answer == "y" || answer == "yes"
}
