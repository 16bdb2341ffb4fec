package agent

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// consolePrompt is printed before each read.
const consolePrompt = "Tap card (type a UID, Enter for a random one, 'exit' to quit): "

type consoleLine struct {
	text string
	err  error
}

// ConsoleSource simulates a reader from line input. A typed line is the tag UID,
// an empty line generates a random UID and "exit" or "quit" ends the source.
type ConsoleSource struct {
	out   io.Writer
	lines chan consoleLine
}

// NewConsoleSource starts reading lines from in. Prompts and notices go to out.
func NewConsoleSource(in io.Reader, out io.Writer) *ConsoleSource {
	s := &ConsoleSource{
		out:   out,
		lines: make(chan consoleLine),
	}
	go s.scan(in)
	return s
}

// scan feeds lines to Next. Reading stdin cannot be interrupted, so the goroutine
// ends only with the input.
func (s *ConsoleSource) scan(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		s.lines <- consoleLine{text: scanner.Text()}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	s.lines <- consoleLine{err: err}
}

// Next waits for the next line and turns it into a tag.
func (s *ConsoleSource) Next(ctx context.Context) (interfaces.TagID, error) {
	for {
		fmt.Fprint(s.out, consolePrompt)

		var line consoleLine
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line = <-s.lines:
		}
		if line.err != nil {
			return "", line.err
		}

		text := strings.TrimSpace(line.text)
		switch strings.ToLower(text) {
		case "exit", "quit":
			return "", io.EOF
		case "":
			tag, err := RandomTagID()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(s.out, "Simulated card %s\n", tag)
			return tag, nil
		}

		tag, err := interfaces.NewTagID(text)
		if err != nil {
			fmt.Fprintf(s.out, "Ignoring input: %v\n", err)
			continue
		}
		return tag, nil
	}
}

// Close is a no-op; the reading goroutine ends with its input.
func (s *ConsoleSource) Close() error {
	return nil
}

// RandomTagID returns a random 4-byte UID starting with 04, like a MIFARE card.
func RandomTagID() (interfaces.TagID, error) {
	uid := make([]byte, 4)
	uid[0] = 0x04
	if _, err := rand.Read(uid[1:]); err != nil {
		return "", fmt.Errorf("could not generate UID: %w", err)
	}
	return interfaces.TagIDFromUID(uid), nil
}
