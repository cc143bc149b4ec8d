package downloader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConfirmFunc asks a yes/no question and blocks until it is answered.
type ConfirmFunc func(prompt string) (bool, error)

// LineConfirm reads answers line by line from in and re-asks until one of
// yes, y, no or n is given. EOF counts as no.
func LineConfirm(in io.Reader, out io.Writer) ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) (bool, error) {
		for {
			fmt.Fprintf(out, "%s [yes/no]\n", prompt)
			line, err := reader.ReadString('\n')
			answer := strings.TrimSpace(line)
			switch answer {
			case "yes", "y":
				return true, nil
			case "no", "n":
				return false, nil
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return false, nil
				}
				return false, err
			}
			fmt.Fprintln(out, "Invalid answer! try again... answer with: [yes/y/no/n]")
		}
	}
}

// AlwaysConfirm answers every question with answer.
func AlwaysConfirm(answer bool) ConfirmFunc {
	return func(string) (bool, error) { return answer, nil }
}
