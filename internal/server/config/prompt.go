package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// PromptPIIKey asks for the PII key on the terminal without echo when none
// was configured. It is a no-op if PIIKey is set or stdin is not a terminal.
func (c *Config) PromptPIIKey(w io.Writer) error {
	if c.PIIKey != "" {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return nil
	}

	if _, err := fmt.Fprint(w, "Enter PII key: "); err != nil {
		return err
	}
	b, err := readPassword(fd)
	if _, werr := fmt.Fprintln(w); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return fmt.Errorf("read pii key: %w", err)
	}
	c.PIIKey = strings.TrimSpace(string(b))
	return nil
}
