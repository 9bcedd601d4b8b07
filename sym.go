package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nf/ch8/chip8"
)

type symbols []symbol

func (s symbols) forAddr(addr uint16) (ss []symbol) {
	i := sort.Search(len(s), func(i int) bool { return s[i].addr >= addr })
	for ; i < len(s); i++ {
		if s[i].addr == addr {
			ss = append(ss, s[i])
		}
	}
	return ss
}

func (s symbols) withLabelPrefix(p string) (ss []symbol) {
	for _, sym := range s {
		if strings.HasPrefix(sym.label, p) {
			ss = append(ss, sym)
		}
	}
	return ss
}

// resolve interprets arg as a label or a hexadecimal address.
func (s symbols) resolve(arg string) (symbol, bool) {
	for _, sym := range s {
		if sym.label == arg {
			return sym, true
		}
	}
	addr, err := parseAddr(arg)
	if err != nil {
		return symbol{}, false
	}
	if ss := s.forAddr(addr); len(ss) > 0 {
		return ss[0], true
	}
	return symbol{addr: addr, label: fmt.Sprintf("%.3x", addr)}, true
}

type symbol struct {
	addr  uint16
	label string
}

func (s symbol) String() string { return fmt.Sprintf("%s (%.3x)", s.label, s.addr) }

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	if v > chip8.AddrMask {
		return 0, fmt.Errorf("address %.4x out of range", v)
	}
	return uint16(v), nil
}

// builtinSymbols labels the program start and the font glyphs.
func builtinSymbols() symbols {
	ss := symbols{{addr: chip8.ProgramStart, label: "start"}}
	for i := 0; i < 16; i++ {
		ss = append(ss, symbol{
			addr:  uint16(chip8.FontAddr + 5*i),
			label: fmt.Sprintf("font%x", i),
		})
	}
	sortSymbols(ss)
	return ss
}

// loadSymbols reads the symbol file next to romFile, if there is one, and
// merges it with the built-in symbols.
func loadSymbols(romFile string) (symbols, error) {
	ss := builtinSymbols()
	f, err := os.Open(romFile + ".sym")
	if os.IsNotExist(err) {
		return ss, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	more, err := parseSymbols(f)
	if err != nil {
		return nil, fmt.Errorf("%s.sym: %v", romFile, err)
	}
	ss = append(ss, more...)
	sortSymbols(ss)
	return ss, nil
}

// parseSymbols reads lines of the form "addr label", where addr is
// hexadecimal. Blank lines and lines starting with '#' are ignored.
func parseSymbols(r io.Reader) (symbols, error) {
	var (
		ss   symbols
		sc   = bufio.NewScanner(r)
		line = 0
	)
	for sc.Scan() {
		line++
		t := strings.TrimSpace(sc.Text())
		if t == "" || t[0] == '#' {
			continue
		}
		f := strings.Fields(t)
		if len(f) != 2 {
			return nil, fmt.Errorf("line %d: want address and label, got %q", line, t)
		}
		addr, err := parseAddr(f[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		ss = append(ss, symbol{addr: addr, label: f[1]})
	}
	return ss, sc.Err()
}

func sortSymbols(ss symbols) {
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].addr < ss[j].addr
	})
}

// addrForOp returns the memory address the instruction at m.PC refers to.
func addrForOp(m *chip8.Machine) (uint16, bool) {
	in, ok := chip8.Decode(m.Fetch(m.PC))
	if !ok {
		return 0, false
	}
	switch in.Op {
	case chip8.JP, chip8.CALL, chip8.LDI:
		return in.NNN, true
	case chip8.JPV0:
		return (in.NNN + uint16(m.V[0])) & chip8.AddrMask, true
	case chip8.DRW, chip8.LDB, chip8.LDIV, chip8.LDVI:
		return m.I & chip8.AddrMask, true
	}
	return 0, false
}
