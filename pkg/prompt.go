package cutarelease

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Default is the presumed answer when the user just hits enter.
type Default int

const (
	// DefaultNone requires an explicit answer.
	DefaultNone Default = iota
	DefaultYes
	DefaultNo
)

func (d Default) hint() string {
	switch d {
	case DefaultYes:
		return " [Y/n] "
	case DefaultNo:
		return " [y/N] "
	default:
		return " [y/n] "
	}
}

// Prompter asks the user yes/no questions.
type Prompter interface {
	Confirm(question string, def Default) (bool, error)
}

var answers = map[string]bool{
	"yes": true, "y": true, "ye": true,
	"no": false, "n": false,
}

// TermPrompter reads answers line by line from In.
type TermPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	banner      lipgloss.Style
}

// NewTermPrompter prompts on out and reads from in. When in is not a
// terminal the answers read are echoed so transcripts stay readable.
func NewTermPrompter(in io.Reader, out io.Writer) *TermPrompter {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &TermPrompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		banner:      lipgloss.NewRenderer(out).NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}

// Confirm implements Prompter.
func (p *TermPrompter) Confirm(question string, def Default) (bool, error) {
	fmt.Fprintln(p.out, p.banner.Render("* * *"))
	defer fmt.Fprintln(p.out, p.banner.Render("* * *"))
	for {
		fmt.Fprint(p.out, question+def.hint())
		line, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			fmt.Fprintln(p.out)
			return false, errorf(ErrNoAnswer, "no answer to %q: %v", firstLine(question), err)
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		if !p.interactive {
			fmt.Fprintln(p.out, choice)
		}
		if choice == "" && def != DefaultNone {
			return def == DefaultYes, nil
		}
		if yes, ok := answers[choice]; ok {
			return yes, nil
		}
		fmt.Fprintln(p.out, "Please respond with 'yes' or 'no' (or 'y' or 'n').")
	}
}

// AssumeYes answers yes to every question.
type AssumeYes struct {
	Out io.Writer
}

// Confirm implements Prompter.
func (a AssumeYes) Confirm(question string, def Default) (bool, error) {
	if a.Out != nil {
		fmt.Fprintf(a.Out, "%s%syes\n", question, def.hint())
	}
	return true, nil
}

func firstLine(s string) string {
	l, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return l
}
