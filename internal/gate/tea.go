package gate

import (
	"context"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/chapkde/internal/console"
)

// TeaPrompter asks with a single-keypress bubbletea view: 1/y proceeds,
// 2/n/q/ctrl+c aborts, any other key is rejected.
type TeaPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewTeaPrompter(in io.Reader, out io.Writer) *TeaPrompter {
	return &TeaPrompter{in: in, out: out}
}

func (t *TeaPrompter) Confirm(ctx context.Context, p Prompt) (bool, error) {
	prog := tea.NewProgram(newConfirmModel(p),
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := prog.Run()
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	return m.answered && m.proceed, nil
}

type confirmModel struct {
	prompt   Prompt
	answered bool
	proceed  bool
	rejected string
}

func newConfirmModel(p Prompt) confirmModel {
	return confirmModel{prompt: p}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "1", "y", "Y":
		m.answered, m.proceed = true, true
		return m, tea.Quit
	case "2", "n", "N", "q", "ctrl+c":
		m.answered, m.proceed = true, false
		return m, tea.Quit
	default:
		m.rejected = key.String()
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		if m.proceed {
			return console.Success.Render("  proceeding with "+m.prompt.Series) + "\n"
		}
		return console.Warning.Render("  stopping at "+m.prompt.Series) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(console.Title.Render("Binning parameters: "+m.prompt.Series) + "\n\n")
	sb.WriteString(console.Panel.Render(strings.Join([]string{
		console.KeyValue("bin_count", strconv.Itoa(m.prompt.Proposed.BinCount)),
		console.KeyValue("bandwidth_method", m.prompt.Proposed.Bandwidth.String()),
		console.KeyValue("file", m.prompt.ParamFile),
	}, "\n")) + "\n\n")
	sb.WriteString("  Edit the file if required, then proceed?\n")
	sb.WriteString(console.KeyHint.Render("  (1) yes   (2) no") + "\n")
	if m.rejected != "" {
		sb.WriteString(console.Error.Render("  ENTRY REJECTED: "+m.rejected+" (press 1 or 2)") + "\n")
	}
	return sb.String()
}
