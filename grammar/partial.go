package grammar

import (
	"regexp/syntax"
	"unicode/utf8"
)

// Extendable reports whether some match of a class or regex pattern starts
// with all of data and goes on past it. The recognizer uses it to decide
// whether reading more input could change the result of a match.
func (p *Pattern) Extendable(data []byte) bool {
	if p.prog == nil {
		return false
	}
	prog := p.prog
	cur := newThreads(len(prog.Inst))
	next := newThreads(len(prog.Inst))

	r, width := nextRune(data, 0)
	addThread(prog, cur, uint32(prog.Start), syntax.EmptyOpContext(-1, r), r < 0)
	for pos := 0; pos < len(data); pos += width {
		if !utf8.FullRune(data[pos:]) {
			// A split rune is completed by the next read.
			return len(cur.dense) > 0
		}
		if len(cur.dense) == 0 {
			return false
		}
		r, width = nextRune(data, pos)
		after, _ := nextRune(data, pos+width)
		ctx := syntax.EmptyOpContext(r, after)
		next.clear()
		for _, pc := range cur.dense {
			inst := &prog.Inst[pc]
			if consumes(inst, r) {
				addThread(prog, next, inst.Out, ctx, pos+width >= len(data))
			}
		}
		cur, next = next, cur
	}
	for _, pc := range cur.dense {
		switch prog.Inst[pc].Op {
		case syntax.InstRune, syntax.InstRune1, syntax.InstRuneAny, syntax.InstRuneAnyNotNL:
			return true
		}
	}
	return false
}

func nextRune(data []byte, pos int) (rune, int) {
	if pos >= len(data) {
		return -1, 0
	}
	return utf8.DecodeRune(data[pos:])
}

type threads struct {
	seen  []bool
	dense []uint32
}

func newThreads(n int) *threads { return &threads{seen: make([]bool, n)} }

func (t *threads) clear() {
	for _, pc := range t.dense {
		t.seen[pc] = false
	}
	t.dense = t.dense[:0]
}

// addThread follows the empty transitions from pc. At the end of the data
// the following rune is unknown, so every assertion is assumed to hold.
func addThread(prog *syntax.Prog, t *threads, pc uint32, ctx syntax.EmptyOp, atEnd bool) {
	if t.seen[pc] {
		return
	}
	t.seen[pc] = true
	inst := &prog.Inst[pc]
	switch inst.Op {
	case syntax.InstFail:
	case syntax.InstAlt, syntax.InstAltMatch:
		addThread(prog, t, inst.Out, ctx, atEnd)
		addThread(prog, t, inst.Arg, ctx, atEnd)
	case syntax.InstCapture, syntax.InstNop:
		addThread(prog, t, inst.Out, ctx, atEnd)
	case syntax.InstEmptyWidth:
		if atEnd || syntax.EmptyOp(inst.Arg)&^ctx == 0 {
			addThread(prog, t, inst.Out, ctx, atEnd)
		}
	default:
		t.dense = append(t.dense, pc)
	}
}

func consumes(inst *syntax.Inst, r rune) bool {
	switch inst.Op {
	case syntax.InstRune:
		return inst.MatchRune(r)
	case syntax.InstRune1:
		return r == inst.Rune[0]
	case syntax.InstRuneAny:
		return true
	case syntax.InstRuneAnyNotNL:
		return r != '\n'
	}
	return false
}

// compileProg compiles expr for Extendable, with the syntax regexp uses.
func compileProg(expr string) (*syntax.Prog, error) {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, err
	}
	return syntax.Compile(re.Simplify())
}
