package main

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/beevik/prefixtree/v2"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/ch8/chip8"
	"github.com/nf/ch8/cosmac"
)

type debugger struct {
	run *cosmac.Runner

	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	mu      sync.Mutex
	brk     *symbol
	syms    symbols
	watches []watch
}

type watch struct {
	symbol
	short bool
}

var commands = newCommands(map[string]string{
	"break":    "b",
	"clear":    "",
	"continue": "c",
	"exit":     "q",
	"pause":    "p",
	"step":     "s",
	"unwatch":  "",
	"watch":    "w",
	"watch2":   "w2",
})

func newCommands(names map[string]string) *prefixtree.Tree[string] {
	t := prefixtree.New[string]()
	for name, shortcut := range names {
		t.Add(name, name)
		if shortcut != "" {
			t.Add(shortcut, name)
		}
	}
	return t
}

// lookupCommand resolves an abbreviated command name.
func lookupCommand(s string) (string, error) {
	name, err := commands.FindValue(s)
	switch err {
	case nil:
		return name, nil
	case prefixtree.ErrPrefixAmbiguous:
		return "", fmt.Errorf("ambiguous command %q", s)
	default:
		return "", fmt.Errorf("unknown command %q", s)
	}
}

func takesAddr(cmd string) bool {
	return cmd == "break" || cmd == "watch" || cmd == "watch2"
}

func (d *debugger) symbols() symbols {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syms
}

func (d *debugger) setSymbols(s symbols) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syms = s
}

func newDebugger() *debugger {
	d := &debugger{
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app:  tview.NewApplication(),
		syms: builtinSymbols(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 3, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if cmd, arg, ok := strings.Cut(t, " "); ok {
			if name, err := lookupCommand(cmd); err == nil && takesAddr(name) {
				for _, s := range d.symbols().withLabelPrefix(arg) {
					entries = append(entries, cmd+" "+s.label)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := strings.TrimSpace(d.input.GetText())
		if line == "" {
			return
		}
		d.input.SetText("")
		d.exec(line)
	})
	return d
}

func (d *debugger) exec(line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	name, err := lookupCommand(cmd)
	if err != nil {
		log.Print(err)
		return
	}
	if takesAddr(name) {
		if arg == "" {
			log.Printf("%s needs an address", name)
			return
		}
		s, ok := d.symbols().resolve(arg)
		if !ok {
			log.Printf("invalid address %q", arg)
			return
		}
		d.mu.Lock()
		if name == "break" {
			d.brk = &s
		} else {
			d.watches = append(d.watches, watch{symbol: s, short: name == "watch2"})
		}
		d.mu.Unlock()
		if name == "break" {
			d.run.Debug(name, s.addr)
			log.Printf("set break %v", s)
		} else {
			log.Printf("watching %v", s)
		}
		return
	}
	switch name {
	case "exit":
		d.app.Stop()
	case "clear":
		d.mu.Lock()
		d.brk = nil
		d.mu.Unlock()
		d.run.Debug(name, 0)
		log.Print("cleared break")
	case "unwatch":
		d.mu.Lock()
		d.watches = nil
		d.mu.Unlock()
		log.Print("cleared watches")
	default:
		d.run.Debug(name, 0)
	}
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) StateFunc(m *chip8.Machine, k cosmac.StateKind) {
	var (
		watch = d.watchContent(m)
		state string
	)
	if k != cosmac.QuietState {
		state = stateMsg(d.symbols(), m, k)
	}
	d.app.QueueUpdateDraw(func() {
		switch k {
		case cosmac.ClearState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case cosmac.BreakState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case cosmac.PauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case cosmac.HaltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		if k != cosmac.QuietState {
			d.state.SetText(state)
		}
	})
}

func stateMsg(syms symbols, m *chip8.Machine, k cosmac.StateKind) string {
	var (
		w     = m.Fetch(m.PC)
		dis   = "???"
		pcSym string
		sym   string
	)
	if in, ok := chip8.Decode(w); ok {
		dis = in.String()
	}
	if s := syms.forAddr(m.PC); len(s) > 0 {
		pcSym = s[0].String() + " -> "
	}
	if addr, ok := addrForOp(m); ok {
		if s := syms.forAddr(addr); len(s) > 0 {
			sym = s[0].String()
		}
	}
	kind := "       "
	switch k {
	case cosmac.BreakState:
		kind = "[break]"
	case cosmac.PauseState:
		kind = "[pause]"
	case cosmac.HaltState:
		kind = "[HALT!]"
	}
	if m.State() == chip8.AwaitingKey {
		kind = "[key?] "
	}
	var v strings.Builder
	for i, r := range m.V {
		if i > 0 {
			v.WriteByte(' ')
		}
		fmt.Fprintf(&v, "%.2x", r)
	}
	return fmt.Sprintf("%.3x %.4x %-16s %s %s%s\nv: %s\ni: %.3x dt: %.2x st: %.2x rs: %v\n",
		m.PC, w, dis, kind, pcSym, sym,
		v.String(), m.I, m.Timers.Delay(), m.Timers.Sound(), m.Stack)
}

func (d *debugger) watchContent(m *chip8.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if s := d.brk; s != nil {
		fmt.Fprintf(&b, "%s [%.3x] brk!\n", s.label, s.addr)
	}
	for _, w := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s [%.3x] ", w.label, w.addr)
		if w.short {
			fmt.Fprintf(&b, "%.4x", m.Fetch(w.addr))
		} else {
			fmt.Fprintf(&b, "  %.2x", m.Mem[w.addr&chip8.AddrMask])
		}
	}
	return b.String()
}
