package handler

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

// ErrInputClosed is returned when stdin reaches EOF mid-prompt.
var ErrInputClosed = errors.New("input closed")

// PasswordReader reads a secret without echoing it.
type PasswordReader interface {
	ReadPassword() (string, error)
}

// TerminalPasswordReader hides input when fd is a terminal.
type TerminalPasswordReader struct {
	fd int
}

// NewTerminalPasswordReader binds the reader to stdin.
func NewTerminalPasswordReader() *TerminalPasswordReader {
	return &TerminalPasswordReader{fd: int(os.Stdin.Fd())}
}

// Usable reports whether fd is an interactive terminal.
func (r *TerminalPasswordReader) Usable() bool {
	return term.IsTerminal(r.fd)
}

// ReadPassword reads one line with echo disabled.
func (r *TerminalPasswordReader) ReadPassword() (string, error) {
	raw, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Console wraps line-oriented prompting and message output.
type Console struct {
	in        *bufio.Reader
	out       io.Writer
	passwords PasswordReader
}

// NewConsole builds a console. passwords may be nil, in which case hidden
// prompts fall back to plain line reads.
func NewConsole(in io.Reader, out io.Writer, passwords PasswordReader) *Console {
	return &Console{in: bufio.NewReader(in), out: out, passwords: passwords}
}

// Printf writes formatted text.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Header prints a section title.
func (c *Console) Header(title string) {
	line := strings.Repeat("=", len(title)+8)
	c.Printf("\n%s\n    %s\n%s\n", line, title, line)
}

func (c *Console) Success(msg string) { c.Printf("[OK] %s\n", msg) }
func (c *Console) Error(msg string)   { c.Printf("[ERROR] %s\n", msg) }
func (c *Console) Warning(msg string) { c.Printf("[WARN] %s\n", msg) }
func (c *Console) Info(msg string)    { c.Printf("[INFO] %s\n", msg) }

// Menu prints numbered options.
func (c *Console) Menu(options []string) {
	for i, opt := range options {
		c.Printf("  %d. %s\n", i+1, opt)
	}
}

// Prompt reads one trimmed line.
func (c *Console) Prompt(label string) (string, error) {
	c.Printf("%s", label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptRequired re-asks until the answer is non-empty.
func (c *Console) PromptRequired(label string) (string, error) {
	for {
		value, err := c.Prompt(label)
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
		c.Error("a value is required")
	}
}

// PromptPassword reads a secret, hidden when a terminal is attached.
func (c *Console) PromptPassword(label string) (string, error) {
	if c.passwords == nil {
		return c.Prompt(label)
	}
	if r, ok := c.passwords.(*TerminalPasswordReader); ok && !r.Usable() {
		return c.Prompt(label)
	}
	c.Printf("%s", label)
	value, err := c.passwords.ReadPassword()
	c.Printf("\n")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// PromptInt re-asks until the answer parses and passes check.
func (c *Console) PromptInt(label string, check func(int) error) (int, error) {
	for {
		raw, err := c.Prompt(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.Error("please enter a whole number")
			continue
		}
		if check != nil {
			if err := check(n); err != nil {
				c.Error(err.Error())
				continue
			}
		}
		return n, nil
	}
}

// PromptFloat re-asks until the answer parses and passes check.
func (c *Console) PromptFloat(label string, check func(float64) error) (float64, error) {
	for {
		raw, err := c.Prompt(label)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.Error("please enter a number")
			continue
		}
		if check != nil {
			if err := check(f); err != nil {
				c.Error(err.Error())
				continue
			}
		}
		return f, nil
	}
}

// PromptString re-asks until check accepts the answer.
func (c *Console) PromptString(label string, check func(string) error) (string, error) {
	for {
		value, err := c.Prompt(label)
		if err != nil {
			return "", err
		}
		if check != nil {
			if err := check(value); err != nil {
				c.Error(err.Error())
				continue
			}
		}
		return value, nil
	}
}

// Choice reads a menu selection in 1..limit.
func (c *Console) Choice(limit int) (int, error) {
	return c.PromptInt(fmt.Sprintf("Enter your choice (1-%d): ", limit), func(n int) error {
		if n < 1 || n > limit {
			return fmt.Errorf("invalid choice, enter a number between 1 and %d", limit)
		}
		return nil
	})
}

// Confirm asks a yes/no question; anything but y/yes is no.
func (c *Console) Confirm(question string) (bool, error) {
	answer, err := c.Prompt(question + " (y/n): ")
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
