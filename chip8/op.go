package chip8

import (
	"fmt"
	"strings"
)

// Op identifies one of the CHIP-8 instructions.
type Op byte

const (
	BAD   Op = iota // not a CHIP-8 instruction
	CLS             // 00E0
	RET             // 00EE
	JP              // 1nnn
	CALL            // 2nnn
	SEK             // 3xkk
	SNEK            // 4xkk
	SEV             // 5xy0
	LDK             // 6xkk
	ADDK            // 7xkk
	LDV             // 8xy0
	OR              // 8xy1
	AND             // 8xy2
	XOR             // 8xy3
	ADD             // 8xy4
	SUB             // 8xy5
	SHR             // 8xy6
	SUBN            // 8xy7
	SHL             // 8xyE
	SNEV            // 9xy0
	LDI             // Annn
	JPV0            // Bnnn
	RND             // Cxkk
	DRW             // Dxyn
	SKP             // Ex9E
	SKNP            // ExA1
	LDVDT           // Fx07
	LDKEY           // Fx0A
	LDDTV           // Fx15
	LDSTV           // Fx18
	ADDI            // Fx1E
	LDF             // Fx29
	LDB             // Fx33
	LDIV            // Fx55
	LDVI            // Fx65

	numOps = iota
)

func (o Op) String() string {
	if int(o) < len(opStrings) {
		return opStrings[o]
	}
	return fmt.Sprintf("Op(%d)", byte(o))
}

var opStrings = strings.Fields(`
	BAD
	CLS
	RET
	JP
	CALL
	SEK
	SNEK
	SEV
	LDK
	ADDK
	LDV
	OR
	AND
	XOR
	ADD
	SUB
	SHR
	SUBN
	SHL
	SNEV
	LDI
	JPV0
	RND
	DRW
	SKP
	SKNP
	LDVDT
	LDKEY
	LDDTV
	LDSTV
	ADDI
	LDF
	LDB
	LDIV
	LDVI
`)

// Instruction is a decoded CHIP-8 instruction word.
// Only the fields used by Op are meaningful.
type Instruction struct {
	Op  Op
	X   byte   // register index, bits 8-11
	Y   byte   // register index, bits 4-7
	N   byte   // nibble, bits 0-3
	KK  byte   // byte, bits 0-7
	NNN uint16 // address, bits 0-11
}

// Decode decodes the big-endian instruction word w.
// It reports false if w is not a CHIP-8 instruction.
func Decode(w uint16) (Instruction, bool) {
	in := Instruction{
		X:   byte(w>>8) & 0xf,
		Y:   byte(w>>4) & 0xf,
		N:   byte(w) & 0xf,
		KK:  byte(w),
		NNN: w & 0xfff,
	}
	switch w >> 12 {
	case 0x0:
		switch w {
		case 0x00e0:
			in.Op = CLS
		case 0x00ee:
			in.Op = RET
		}
	case 0x1:
		in.Op = JP
	case 0x2:
		in.Op = CALL
	case 0x3:
		in.Op = SEK
	case 0x4:
		in.Op = SNEK
	case 0x5:
		if in.N == 0 {
			in.Op = SEV
		}
	case 0x6:
		in.Op = LDK
	case 0x7:
		in.Op = ADDK
	case 0x8:
		if int(in.N) < len(aluOps) {
			in.Op = aluOps[in.N]
		}
	case 0x9:
		if in.N == 0 {
			in.Op = SNEV
		}
	case 0xa:
		in.Op = LDI
	case 0xb:
		in.Op = JPV0
	case 0xc:
		in.Op = RND
	case 0xd:
		in.Op = DRW
	case 0xe:
		switch in.KK {
		case 0x9e:
			in.Op = SKP
		case 0xa1:
			in.Op = SKNP
		}
	case 0xf:
		in.Op = miscOps[in.KK]
	}
	return in, in.Op != BAD
}

var aluOps = [...]Op{
	0x0: LDV,
	0x1: OR,
	0x2: AND,
	0x3: XOR,
	0x4: ADD,
	0x5: SUB,
	0x6: SHR,
	0x7: SUBN,
	0xe: SHL,
}

var miscOps = map[byte]Op{
	0x07: LDVDT,
	0x0a: LDKEY,
	0x15: LDDTV,
	0x18: LDSTV,
	0x1e: ADDI,
	0x29: LDF,
	0x33: LDB,
	0x55: LDIV,
	0x65: LDVI,
}

// Word encodes the instruction back into its instruction word.
// It returns zero for BAD.
func (in Instruction) Word() uint16 {
	var (
		x   = uint16(in.X&0xf) << 8
		y   = uint16(in.Y&0xf) << 4
		kk  = uint16(in.KK)
		nnn = in.NNN & 0xfff
	)
	switch in.Op {
	case CLS:
		return 0x00e0
	case RET:
		return 0x00ee
	case JP:
		return 0x1000 | nnn
	case CALL:
		return 0x2000 | nnn
	case SEK:
		return 0x3000 | x | kk
	case SNEK:
		return 0x4000 | x | kk
	case SEV:
		return 0x5000 | x | y
	case LDK:
		return 0x6000 | x | kk
	case ADDK:
		return 0x7000 | x | kk
	case LDV, OR, AND, XOR, ADD, SUB, SHR, SUBN, SHL:
		for n, op := range aluOps {
			if op == in.Op {
				return 0x8000 | x | y | uint16(n)
			}
		}
	case SNEV:
		return 0x9000 | x | y
	case LDI:
		return 0xa000 | nnn
	case JPV0:
		return 0xb000 | nnn
	case RND:
		return 0xc000 | x | kk
	case DRW:
		return 0xd000 | x | y | uint16(in.N&0xf)
	case SKP:
		return 0xe09e | x
	case SKNP:
		return 0xe0a1 | x
	default:
		for b, op := range miscOps {
			if op == in.Op {
				return 0xf000 | x | uint16(b)
			}
		}
	}
	return 0
}

// String returns the instruction in conventional CHIP-8 assembly syntax.
func (in Instruction) String() string {
	switch in.Op {
	case CLS, RET:
		return in.Op.String()
	case JP:
		return fmt.Sprintf("JP  0x%.3x", in.NNN)
	case CALL:
		return fmt.Sprintf("CALL 0x%.3x", in.NNN)
	case SEK:
		return fmt.Sprintf("SE  V%X, 0x%.2x", in.X, in.KK)
	case SNEK:
		return fmt.Sprintf("SNE V%X, 0x%.2x", in.X, in.KK)
	case SEV:
		return fmt.Sprintf("SE  V%X, V%X", in.X, in.Y)
	case LDK:
		return fmt.Sprintf("LD  V%X, 0x%.2x", in.X, in.KK)
	case ADDK:
		return fmt.Sprintf("ADD V%X, 0x%.2x", in.X, in.KK)
	case LDV:
		return fmt.Sprintf("LD  V%X, V%X", in.X, in.Y)
	case OR, AND, XOR, ADD, SUB, SHR, SUBN, SHL:
		return fmt.Sprintf("%-3s V%X, V%X", in.Op, in.X, in.Y)
	case SNEV:
		return fmt.Sprintf("SNE V%X, V%X", in.X, in.Y)
	case LDI:
		return fmt.Sprintf("LD  I, 0x%.3x", in.NNN)
	case JPV0:
		return fmt.Sprintf("JP  V0, 0x%.3x", in.NNN)
	case RND:
		return fmt.Sprintf("RND V%X, 0x%.2x", in.X, in.KK)
	case DRW:
		return fmt.Sprintf("DRW V%X, V%X, %d", in.X, in.Y, in.N)
	case SKP:
		return fmt.Sprintf("SKP V%X", in.X)
	case SKNP:
		return fmt.Sprintf("SKNP V%X", in.X)
	case LDVDT:
		return fmt.Sprintf("LD  V%X, DT", in.X)
	case LDKEY:
		return fmt.Sprintf("LD  V%X, K", in.X)
	case LDDTV:
		return fmt.Sprintf("LD  DT, V%X", in.X)
	case LDSTV:
		return fmt.Sprintf("LD  ST, V%X", in.X)
	case ADDI:
		return fmt.Sprintf("ADD I, V%X", in.X)
	case LDF:
		return fmt.Sprintf("LD  F, V%X", in.X)
	case LDB:
		return fmt.Sprintf("LD  B, V%X", in.X)
	case LDIV:
		return fmt.Sprintf("LD  [I], V%X", in.X)
	case LDVI:
		return fmt.Sprintf("LD  V%X, [I]", in.X)
	}
	return in.Op.String()
}
