package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LinePrompter asks on a line-oriented stream: "1" proceeds, "2" aborts,
// anything else is rejected and the question is asked again.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (l *LinePrompter) Confirm(ctx context.Context, p Prompt) (bool, error) {
	fmt.Fprint(l.out, Message(p))

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprint(l.out, "  Enter a response here (1 or 2): ")

		line, err := l.in.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			return true, nil
		case "2":
			return false, nil
		}
		if err != nil {
			if err == io.EOF {
				return false, fmt.Errorf("no response for %s: %w", p.Series, io.ErrUnexpectedEOF)
			}
			return false, err
		}
		fmt.Fprint(l.out, Rejected)
	}
}

// Rejected is printed after an invalid answer.
const Rejected = "\n ENTRY REJECTED!\n **Please enter the appropriate option (1 or 2)\n\n"

// Message is the question shown before a series is committed.
func Message(p Prompt) string {
	return fmt.Sprintf("\n  Optimal binning parameters for %s have been estimated"+
		" (bin_count=%d, bandwidth_method=%s).\n"+
		"  Parameters have been written to the file %q.\n\n"+
		"  You can modify the parameters if required.\n"+
		"   Enter \"1\" below when you are ready.\n\n"+
		"   Do you want to proceed?\n    (1) Yes\n    (2) No\n\n",
		p.Series, p.Proposed.BinCount, p.Proposed.Bandwidth, p.ParamFile)
}
