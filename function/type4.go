// seehuhn.de/go/pdfrender - render PDF pages to raster images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package function

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"seehuhn.de/go/pdf"
)

// Type4 is a PostScript calculator function: a program in a small subset
// of the PostScript language, operating on a stack of numbers and
// booleans.
type Type4 struct {
	// Domain defines the valid input ranges as [min0, max0, min1, max1, ...].
	Domain []float64

	// Range defines the valid output ranges as [min0, max0, min1, max1, ...].
	Range []float64

	// Program is the parsed outermost procedure.
	Program []psInstr
}

// Shape returns the number of input and output values of the function.
func (f *Type4) Shape() (int, int) {
	return len(f.Domain) / 2, len(f.Range) / 2
}

// Apply applies the function to the given input values.
func (f *Type4) Apply(inputs ...float64) []float64 {
	m, n := f.Shape()
	if len(inputs) != m {
		panic(fmt.Sprintf("expected %d inputs, got %d", m, len(inputs)))
	}

	stack := make([]psValue, 0, 16)
	for i := range m {
		x := clip(inputs[i], f.Domain[2*i], f.Domain[2*i+1])
		stack = append(stack, psReal(x))
	}

	stack, err := psExec(f.Program, stack)

	outputs := make([]float64, n)
	if err != nil || len(stack) < n {
		// execution errors map all outputs to the range minimum
		for i := range n {
			outputs[i] = f.Range[2*i]
		}
		return outputs
	}

	// the last n stack values are the outputs, bottom first
	for i := range n {
		v := stack[len(stack)-n+i]
		outputs[i] = clip(v.toFloat(), f.Range[2*i], f.Range[2*i+1])
	}
	return outputs
}

func readType4(r pdf.Getter, stream *pdf.Stream) (*Type4, error) {
	d := stream.Dict
	domain, err := readFloats(r, d["Domain"])
	if err != nil {
		return nil, err
	}
	rng, err := readFloats(r, d["Range"])
	if err != nil {
		return nil, err
	}

	f := &Type4{Domain: domain, Range: rng}
	m, n := f.Shape()
	if m == 0 || n == 0 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("inconsistent Type 4 function shape"),
		}
	}

	body, err := pdf.DecodeStream(r, stream, 0)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	src, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	prog, err := psParse(string(src))
	if err != nil {
		return nil, &pdf.MalformedFileError{Err: err}
	}
	f.Program = prog
	return f, nil
}

// psInstr is one instruction of a parsed calculator program: either a
// literal push, an operator, or a nested procedure (the body of an
// if/ifelse).
type psInstr struct {
	op   string    // operator name, or "" for a literal
	val  psValue   // literal value when op == ""
	proc []psInstr // nested procedure, pushed for if/ifelse
}

// psValue is a tagged stack element. Integers and reals are distinguished
// because some operators (idiv, mod, bitshift) require integer operands.
type psValue struct {
	isBool bool
	isInt  bool
	b      bool
	i      int
	f      float64
}

func psInt(n int) psValue      { return psValue{isInt: true, i: n} }
func psReal(x float64) psValue { return psValue{f: x} }
func psBool(b bool) psValue    { return psValue{isBool: true, b: b} }

func (v psValue) toFloat() float64 {
	if v.isInt {
		return float64(v.i)
	}
	return v.f
}

func (v psValue) isNum() bool { return !v.isBool }

// psParse tokenizes and parses a calculator program. The outermost braces
// are required; nested procedures become psInstr.proc entries.
func psParse(src string) ([]psInstr, error) {
	// braces are self-delimiting tokens
	src = strings.ReplaceAll(src, "{", " { ")
	src = strings.ReplaceAll(src, "}", " } ")
	tokens := strings.Fields(src)

	if len(tokens) == 0 || tokens[0] != "{" {
		return nil, errors.New("calculator program must start with '{'")
	}
	prog, rest, err := psParseProc(tokens[1:])
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing tokens after calculator program")
	}
	return prog, nil
}

func psParseProc(tokens []string) (proc []psInstr, rest []string, err error) {
	for len(tokens) > 0 {
		tok := tokens[0]
		tokens = tokens[1:]
		switch tok {
		case "}":
			return proc, tokens, nil
		case "{":
			inner, rest, err := psParseProc(tokens)
			if err != nil {
				return nil, nil, err
			}
			proc = append(proc, psInstr{op: "proc", proc: inner})
			tokens = rest
		default:
			if n, err := strconv.Atoi(tok); err == nil {
				proc = append(proc, psInstr{val: psInt(n)})
			} else if x, err := strconv.ParseFloat(tok, 64); err == nil {
				proc = append(proc, psInstr{val: psReal(x)})
			} else if psOperators[tok] {
				proc = append(proc, psInstr{op: tok})
			} else {
				return nil, nil, fmt.Errorf("unknown operator %q", tok)
			}
		}
	}
	return nil, nil, errors.New("unbalanced braces in calculator program")
}

var psOperators = map[string]bool{
	"abs": true, "add": true, "atan": true, "ceiling": true, "cos": true,
	"cvi": true, "cvr": true, "div": true, "exp": true, "floor": true,
	"idiv": true, "ln": true, "log": true, "mod": true, "mul": true,
	"neg": true, "round": true, "sin": true, "sqrt": true, "sub": true,
	"truncate": true,
	"and": true, "bitshift": true, "eq": true, "false": true, "ge": true,
	"gt": true, "le": true, "lt": true, "ne": true, "not": true,
	"or": true, "true": true, "xor": true,
	"if": true, "ifelse": true,
	"copy": true, "dup": true, "exch": true, "index": true, "pop": true,
	"roll": true,
}

const psMaxStack = 100

var (
	errStackUnderflow = errors.New("stack underflow")
	errStackOverflow  = errors.New("stack overflow")
	errTypeMismatch   = errors.New("type mismatch")
	errDivByZero      = errors.New("division by zero")
)

// psExec runs a procedure on the given stack. Procedures pushed by "proc"
// instructions are consumed by the following if/ifelse.
func psExec(proc []psInstr, stack []psValue) ([]psValue, error) {
	pop := func() (psValue, error) {
		if len(stack) == 0 {
			return psValue{}, errStackUnderflow
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	popNum := func() (float64, error) {
		v, err := pop()
		if err != nil {
			return 0, err
		}
		if !v.isNum() {
			return 0, errTypeMismatch
		}
		return v.toFloat(), nil
	}
	popInt := func() (int, error) {
		v, err := pop()
		if err != nil {
			return 0, err
		}
		if !v.isInt {
			return 0, errTypeMismatch
		}
		return v.i, nil
	}
	push := func(v psValue) error {
		if len(stack) >= psMaxStack {
			return errStackOverflow
		}
		stack = append(stack, v)
		return nil
	}

	for pc := 0; pc < len(proc); pc++ {
		inst := proc[pc]

		if inst.op == "" {
			if err := push(inst.val); err != nil {
				return nil, err
			}
			continue
		}

		switch inst.op {
		case "proc":
			// consumed by the if/ifelse that follows
			switch {
			case pc+1 < len(proc) && proc[pc+1].op == "if":
				cond, err := pop()
				if err != nil {
					return nil, err
				}
				if !cond.isBool {
					return nil, errTypeMismatch
				}
				if cond.b {
					var err error
					stack, err = psExec(inst.proc, stack)
					if err != nil {
						return nil, err
					}
				}
				pc++
			case pc+2 < len(proc) && proc[pc+1].op == "proc" && proc[pc+2].op == "ifelse":
				cond, err := pop()
				if err != nil {
					return nil, err
				}
				if !cond.isBool {
					return nil, errTypeMismatch
				}
				body := inst.proc
				if !cond.b {
					body = proc[pc+1].proc
				}
				stack, err = psExec(body, stack)
				if err != nil {
					return nil, err
				}
				pc += 2
			default:
				return nil, errors.New("procedure without if/ifelse")
			}

		case "true":
			if err := push(psBool(true)); err != nil {
				return nil, err
			}
		case "false":
			if err := push(psBool(false)); err != nil {
				return nil, err
			}

		case "add", "sub", "mul", "div", "exp", "atan":
			b, err := popNum()
			if err != nil {
				return nil, err
			}
			a, err := popNum()
			if err != nil {
				return nil, err
			}
			var r float64
			switch inst.op {
			case "add":
				r = a + b
			case "sub":
				r = a - b
			case "mul":
				r = a * b
			case "div":
				if b == 0 {
					return nil, errDivByZero
				}
				r = a / b
			case "exp":
				r = math.Pow(a, b)
			case "atan":
				// result in degrees, in [0, 360)
				r = math.Atan2(a, b) * 180 / math.Pi
				if r < 0 {
					r += 360
				}
			}
			stack = append(stack, psReal(r))

		case "abs", "neg", "sqrt", "sin", "cos", "ln", "log",
			"ceiling", "floor", "round", "truncate":
			a, err := popNum()
			if err != nil {
				return nil, err
			}
			var r float64
			switch inst.op {
			case "abs":
				r = math.Abs(a)
			case "neg":
				r = -a
			case "sqrt":
				if a < 0 {
					return nil, errors.New("sqrt of negative number")
				}
				r = math.Sqrt(a)
			case "sin":
				r = math.Sin(a * math.Pi / 180)
			case "cos":
				r = math.Cos(a * math.Pi / 180)
			case "ln":
				if a <= 0 {
					return nil, errors.New("ln of non-positive number")
				}
				r = math.Log(a)
			case "log":
				if a <= 0 {
					return nil, errors.New("log of non-positive number")
				}
				r = math.Log10(a)
			case "ceiling":
				r = math.Ceil(a)
			case "floor":
				r = math.Floor(a)
			case "round":
				r = math.Floor(a + 0.5)
			case "truncate":
				r = math.Trunc(a)
			}
			stack = append(stack, psReal(r))

		case "idiv", "mod":
			b, err := popInt()
			if err != nil {
				return nil, err
			}
			a, err := popInt()
			if err != nil {
				return nil, err
			}
			if b == 0 {
				return nil, errDivByZero
			}
			if inst.op == "idiv" {
				stack = append(stack, psInt(a/b))
			} else {
				stack = append(stack, psInt(a%b))
			}

		case "cvi":
			a, err := popNum()
			if err != nil {
				return nil, err
			}
			stack = append(stack, psInt(int(math.Trunc(a))))
		case "cvr":
			a, err := popNum()
			if err != nil {
				return nil, err
			}
			stack = append(stack, psReal(a))

		case "eq", "ne", "gt", "ge", "lt", "le":
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			if !a.isNum() || !b.isNum() {
				if inst.op != "eq" && inst.op != "ne" {
					return nil, errTypeMismatch
				}
				if !a.isBool || !b.isBool {
					return nil, errTypeMismatch
				}
				r := a.b == b.b
				if inst.op == "ne" {
					r = !r
				}
				stack = append(stack, psBool(r))
				break
			}
			af, bf := a.toFloat(), b.toFloat()
			var r bool
			switch inst.op {
			case "eq":
				r = af == bf
			case "ne":
				r = af != bf
			case "gt":
				r = af > bf
			case "ge":
				r = af >= bf
			case "lt":
				r = af < bf
			case "le":
				r = af <= bf
			}
			stack = append(stack, psBool(r))

		case "and", "or", "xor":
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			switch {
			case a.isBool && b.isBool:
				var r bool
				switch inst.op {
				case "and":
					r = a.b && b.b
				case "or":
					r = a.b || b.b
				case "xor":
					r = a.b != b.b
				}
				stack = append(stack, psBool(r))
			case a.isInt && b.isInt:
				var r int
				switch inst.op {
				case "and":
					r = a.i & b.i
				case "or":
					r = a.i | b.i
				case "xor":
					r = a.i ^ b.i
				}
				stack = append(stack, psInt(r))
			default:
				return nil, errTypeMismatch
			}

		case "not":
			a, err := pop()
			if err != nil {
				return nil, err
			}
			switch {
			case a.isBool:
				stack = append(stack, psBool(!a.b))
			case a.isInt:
				stack = append(stack, psInt(^a.i))
			default:
				return nil, errTypeMismatch
			}

		case "bitshift":
			shift, err := popInt()
			if err != nil {
				return nil, err
			}
			a, err := popInt()
			if err != nil {
				return nil, err
			}
			if shift >= 0 {
				stack = append(stack, psInt(a<<uint(shift)))
			} else {
				stack = append(stack, psInt(a>>uint(-shift)))
			}

		case "dup":
			if len(stack) == 0 {
				return nil, errStackUnderflow
			}
			if err := push(stack[len(stack)-1]); err != nil {
				return nil, err
			}
		case "pop":
			if _, err := pop(); err != nil {
				return nil, err
			}
		case "exch":
			if len(stack) < 2 {
				return nil, errStackUnderflow
			}
			n := len(stack)
			stack[n-1], stack[n-2] = stack[n-2], stack[n-1]
		case "copy":
			n, err := popInt()
			if err != nil {
				return nil, err
			}
			if n < 0 || n > len(stack) {
				return nil, errStackUnderflow
			}
			if len(stack)+n > psMaxStack {
				return nil, errStackOverflow
			}
			stack = append(stack, stack[len(stack)-n:]...)
		case "index":
			n, err := popInt()
			if err != nil {
				return nil, err
			}
			if n < 0 || n >= len(stack) {
				return nil, errStackUnderflow
			}
			if err := push(stack[len(stack)-1-n]); err != nil {
				return nil, err
			}
		case "roll":
			j, err := popInt()
			if err != nil {
				return nil, err
			}
			n, err := popInt()
			if err != nil {
				return nil, err
			}
			if n < 0 || n > len(stack) {
				return nil, errStackUnderflow
			}
			if n > 0 {
				j %= n
				if j < 0 {
					j += n
				}
				if j != 0 {
					data := stack[len(stack)-n:]
					tmp := make([]psValue, j)
					copy(tmp, data[n-j:])
					copy(data[j:], data[:n-j])
					copy(data, tmp)
				}
			}

		case "if", "ifelse":
			// handled together with the preceding "proc"
			return nil, fmt.Errorf("%s without procedure", inst.op)

		default:
			return nil, fmt.Errorf("unknown operator %q", inst.op)
		}
	}
	return stack, nil
}
