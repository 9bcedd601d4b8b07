package chip8

import (
	"fmt"
	"strings"
)

// StackDepth is the number of return addresses the call stack can hold.
const StackDepth = 16

// Stack implements the CHIP-8 call stack.
type Stack struct {
	Addrs [StackDepth]uint16
	Ptr   byte
}

func (s *Stack) push(addr uint16) {
	if int(s.Ptr) == len(s.Addrs) {
		panic(StackOverflow)
	}
	s.Addrs[s.Ptr] = addr
	s.Ptr++
}

func (s *Stack) pop() uint16 {
	if s.Ptr == 0 {
		panic(StackUnderflow)
	}
	s.Ptr--
	return s.Addrs[s.Ptr]
}

// Len returns the number of return addresses on the stack.
func (s *Stack) Len() int { return int(s.Ptr) }

func (s Stack) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, v := range s.Addrs[:s.Ptr] {
		b.WriteByte(' ')
		fmt.Fprintf(&b, "%.3x", v)
	}
	b.WriteByte(' ')
	b.WriteByte(')')
	return b.String()
}
