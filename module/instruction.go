package module

import (
	"fmt"
	"strconv"
	"strings"
)

type Opcode uint8

const (
	OpNop Opcode = iota
	OpLdarg
	OpStarg
	OpLdfld
	OpStfld
	OpLdstr
	OpLdc
	OpLdcr
	OpLdnull
	OpDup
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpCeq
	OpClt
	OpCgt
	OpConvR8
	OpBr
	OpBrtrue
	OpBrfalse
	OpCall
	OpCallvirt
	OpNewobj
	OpThrow
	OpRet
	opCount
)

var opNames = [opCount]string{
	OpNop:      "nop",
	OpLdarg:    "ldarg",
	OpStarg:    "starg",
	OpLdfld:    "ldfld",
	OpStfld:    "stfld",
	OpLdstr:    "ldstr",
	OpLdc:      "ldc",
	OpLdcr:     "ldcr",
	OpLdnull:   "ldnull",
	OpDup:      "dup",
	OpPop:      "pop",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpDiv:      "div",
	OpNeg:      "neg",
	OpCeq:      "ceq",
	OpClt:      "clt",
	OpCgt:      "cgt",
	OpConvR8:   "conv.r8",
	OpBr:       "br",
	OpBrtrue:   "brtrue",
	OpBrfalse:  "brfalse",
	OpCall:     "call",
	OpCallvirt: "callvirt",
	OpNewobj:   "newobj",
	OpThrow:    "throw",
	OpRet:      "ret",
}

var opsByName = func() map[string]Opcode {
	byName := make(map[string]Opcode, opCount)
	for op, name := range opNames {
		byName[name] = Opcode(op)
	}
	return byName
}()

func (op Opcode) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// HasOperand reports whether the opcode takes an operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case OpLdarg, OpStarg, OpLdfld, OpStfld, OpLdstr, OpLdc, OpLdcr,
		OpBr, OpBrtrue, OpBrfalse, OpCall, OpCallvirt, OpNewobj:
		return true
	}
	return false
}

// IsBranch reports whether the operand names a label to jump to.
func (op Opcode) IsBranch() bool {
	return op == OpBr || op == OpBrtrue || op == OpBrfalse
}

// Instruction is one step of a method body. Operands are kept in their
// textual form; ldstr operands are the unquoted string value.
type Instruction struct {
	Label   string
	Op      Opcode
	Operand string
}

func Ins(op Opcode, operand ...string) Instruction {
	ins := Instruction{Op: op}
	if len(operand) > 0 {
		ins.Operand = operand[0]
	}
	return ins
}

func (ins Instruction) String() string {
	var sb strings.Builder
	if ins.Label != "" {
		sb.WriteString(ins.Label)
		sb.WriteString(": ")
	}
	sb.WriteString(ins.Op.String())
	if ins.Op.HasOperand() {
		sb.WriteByte(' ')
		if ins.Op == OpLdstr {
			sb.WriteString(strconv.Quote(ins.Operand))
		} else {
			sb.WriteString(ins.Operand)
		}
	}
	return sb.String()
}

// ParseInstruction parses the text form "[label:] op [operand]".
func ParseInstruction(text string) (Instruction, error) {
	var ins Instruction
	rest := strings.TrimSpace(text)
	if rest == "" {
		return ins, fmt.Errorf("empty instruction")
	}

	head, tail, _ := strings.Cut(rest, " ")
	if strings.HasSuffix(head, ":") {
		ins.Label = strings.TrimSuffix(head, ":")
		if ins.Label == "" {
			return ins, fmt.Errorf("instruction %q: empty label", text)
		}
		rest = strings.TrimSpace(tail)
		head, tail, _ = strings.Cut(rest, " ")
	}

	op, ok := opsByName[head]
	if !ok {
		return ins, fmt.Errorf("instruction %q: unknown opcode %q", text, head)
	}
	ins.Op = op

	operand := strings.TrimSpace(tail)
	switch {
	case !op.HasOperand() && operand != "":
		return ins, fmt.Errorf("instruction %q: %s takes no operand", text, op)
	case op.HasOperand() && operand == "":
		return ins, fmt.Errorf("instruction %q: %s requires an operand", text, op)
	case op == OpLdstr:
		s, err := strconv.Unquote(operand)
		if err != nil {
			return ins, fmt.Errorf("instruction %q: bad string literal: %w", text, err)
		}
		ins.Operand = s
	case op == OpLdarg || op == OpStarg || op == OpLdc:
		if _, err := strconv.ParseInt(operand, 10, 64); err != nil {
			return ins, fmt.Errorf("instruction %q: bad integer operand: %w", text, err)
		}
		ins.Operand = operand
	case op == OpLdcr:
		if _, err := strconv.ParseFloat(operand, 64); err != nil {
			return ins, fmt.Errorf("instruction %q: bad float operand: %w", text, err)
		}
		ins.Operand = operand
	default:
		ins.Operand = operand
	}
	return ins, nil
}

// ParseBody parses one instruction per non-blank line. Lines starting with
// "//" are comments.
func ParseBody(src string) ([]Instruction, error) {
	var body []Instruction
	for i, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		ins, err := ParseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		body = append(body, ins)
	}
	return body, nil
}

// MustParseBody is ParseBody for literals known to be valid.
func MustParseBody(src string) []Instruction {
	body, err := ParseBody(src)
	if err != nil {
		panic(err)
	}
	return body
}

// Labels indexes the labelled instructions of a body.
func Labels(body []Instruction) (map[string]int, error) {
	labels := map[string]int{}
	for i, ins := range body {
		if ins.Label == "" {
			continue
		}
		if _, dup := labels[ins.Label]; dup {
			return nil, fmt.Errorf("duplicate label %q", ins.Label)
		}
		labels[ins.Label] = i
	}
	for i, ins := range body {
		if !ins.Op.IsBranch() {
			continue
		}
		if _, ok := labels[ins.Operand]; !ok {
			return nil, fmt.Errorf("instruction %d: branch to undefined label %q", i, ins.Operand)
		}
	}
	return labels, nil
}
