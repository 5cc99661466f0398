package token

/*
 * BasicV - Tokeniser
 *
 * Copyright 2025, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

import (
	"math"
	"strconv"
	"strings"
)

type keyword struct {
	text string
	tok  byte
}

// Keywords grouped by first letter, longest first within a group so that
// greedy matching picks ENDPROC over END and TOP over TO.
var keywords = map[byte][]keyword{
	'A': {{"AND", And}, {"ABS", Abs}, {"ASC", Asc}},
	'C': {{"CHAIN", Chain}, {"CLEAR", Clear}, {"CLOSE", Close}, {"CHR$", ChrStr}, {"CALL", Call}, {"CASE", Case}},
	'D': {{"DATA", Data}, {"DEF", Def}, {"DIM", Dim}, {"DIV", Div}},
	'E': {{"ENDWHILE", EndWhile}, {"ENDPROC", EndProc}, {"ENDCASE", EndCase}, {"ENDIF", EndIf},
		{"ERROR", Error}, {"ELSE", Else}, {"END", End}, {"EOR", Eor}, {"ERL", Erl}, {"ERR", ErrTok}},
	'F': {{"FALSE", FalseT}, {"FOR", For}, {"FN", Fn}},
	'G': {{"GOSUB", Gosub}, {"GOTO", Goto}},
	'H': {{"HIMEM", Himem}},
	'I': {{"INSTALL", Install}, {"INPUT", Input}, {"INT", IntFn}, {"IF", If}},
	'L': {{"LIBRARY", Library}, {"LEFT$", LeftStr}, {"LOCAL", Local}, {"LEN", Len}, {"LET", Let}},
	'M': {{"MID$", MidStr}, {"MOD", Mod}},
	'N': {{"NEXT", Next}, {"NOT", Not}},
	'O': {{"OTHERWISE", Otherwise}, {"OSCLI", Oscli}, {"OFF", Off}, {"OF", Of}, {"ON", On}, {"OR", Or}},
	'P': {{"PRINT", Print}, {"PROC", Proc}, {"PI", Pi}},
	'Q': {{"QUIT", Quit}},
	'R': {{"RESTORE", Restore}, {"RETURN", Return}, {"RIGHT$", RightSt}, {"REPEAT", Repeat},
		{"REPORT", Report}, {"READ", Read}, {"REM", Rem}, {"RND", Rnd}, {"RUN", Run}},
	'S': {{"STRING$", StringS}, {"STR$", StrStr}, {"STEP", Step}, {"STOP", Stop}, {"SWAP", Swap},
		{"SGN", Sgn}, {"SQR", Sqr}, {"SYS", Sys}},
	'T': {{"TRACE", Trace}, {"TRUE", TrueT}, {"THEN", Then}, {"TIME", Time}, {"TOP", Top}, {"TO", To}},
	'U': {{"UNTIL", Until}},
	'V': {{"VAL", Val}, {"VDU", Vdu}},
	'W': {{"WHILE", While}, {"WHEN", When}, {"WAIT", Wait}},
}

var spellings [256]string

func init() {
	for _, list := range keywords {
		for _, kw := range list {
			spellings[kw.tok] = kw.text
		}
	}
	spellings[XVar] = ""
	spellings[Le] = "<="
	spellings[Ge] = ">="
	spellings[Ne] = "<>"
	spellings[Shl] = "<<"
	spellings[Shr] = ">>"
	spellings[Shrl] = ">>>"
	spellings[XIf] = "IF"
	spellings[BlockIf] = "IF"
	spellings[SinglIf] = "IF"
	spellings[XElse] = "ELSE"
	spellings[XLhElse] = "ELSE"
	spellings[LhElse] = "ELSE"
	spellings[XCase] = "CASE"
	spellings[XWhen] = "WHEN"
	spellings[XOtherwise] = "OTHERWISE"
	spellings[XWhile] = "WHILE"
}

// matchKeyword tries to match a keyword at src[i]. Keywords are upper
// case; a match is rejected when the following character could extend a
// variable name, so that "TOP5" stays a name while "TO" in "1 TO 3"
// does not. PROC and FN are exempt: the name they introduce follows
// immediately.
func matchKeyword(src string, i int) (keyword, bool) {
	for _, kw := range keywords[src[i]] {
		if !strings.HasPrefix(src[i:], kw.text) {
			continue
		}
		end := i + len(kw.text)
		last := kw.text[len(kw.text)-1]
		if kw.tok != Proc && kw.tok != Fn &&
			last != '$' && end < len(src) && IsNameChar(src[end]) {
			continue
		}
		return kw, true
	}
	return keyword{}, false
}

// tokenizeSource converts program text into source tokens: keywords
// become token bytes, multi-character operators their tokens, all else
// is kept as literal text. Strings are copied verbatim.
func tokenizeSource(src string) []byte {
	out := make([]byte, 0, len(src)+8)
	i := 0
	for i < len(src) {
		ch := src[i]
		switch {
		case ch == '"':
			out = append(out, ch)
			i++
			for i < len(src) {
				out = append(out, src[i])
				if src[i] == '"' {
					i++
					break
				}
				i++
			}
		case ch == '<' || ch == '>':
			rest := src[i:]
			switch {
			case strings.HasPrefix(rest, "<="):
				out = append(out, Le)
				i += 2
			case strings.HasPrefix(rest, ">="):
				out = append(out, Ge)
				i += 2
			case strings.HasPrefix(rest, "<>"):
				out = append(out, Ne)
				i += 2
			case strings.HasPrefix(rest, "<<"):
				out = append(out, Shl)
				i += 2
			case strings.HasPrefix(rest, ">>>"):
				out = append(out, Shrl)
				i += 3
			case strings.HasPrefix(rest, ">>"):
				out = append(out, Shr)
				i += 2
			default:
				out = append(out, ch)
				i++
			}
		case ch >= 'A' && ch <= 'Z':
			kw, ok := matchKeyword(src, i)
			if !ok {
				out = append(out, ch)
				i++
				break
			}
			out = append(out, kw.tok)
			i += len(kw.text)
			if kw.tok == Rem {
				// The rest of the line is commentary
				out = append(out, src[i:]...)
				i = len(src)
			}
		default:
			out = append(out, ch)
			i++
		}
	}
	return out
}

// execState carries the context needed while deriving the executable
// section from the source tokens.
type execState struct {
	src      []byte
	exec     []byte
	execBase int32 // record offset of the executable section
	stmtTok  byte  // leading token of the current statement
	onBranch bool  // inside ON ... GOTO/GOSUB/PROC
	lineCtx  bool  // a literal number here is a line number
	done     bool  // rest of the line is not executable
}

func (st *execState) emit(b ...byte) {
	st.exec = append(st.exec, b...)
}

// srcOff computes the self-relative operand that lets a token find its
// backing source text: the token's record offset minus the text's.
func (st *execState) srcOff(pos int32) int32 {
	return st.execBase + int32(len(st.exec)) - (HeaderSize + pos)
}

// skipSpaces advances over literal blanks in the source tokens.
func skipSpaces(src []byte, i int32) int32 {
	for i < int32(len(src)) && src[i] == ' ' {
		i++
	}
	return i
}

// number scans a numeric literal and appends the matching constant
// token. Hexadecimal constants are introduced by '&'.
func (st *execState) number(i int32) int32 {
	start := i
	src := st.src
	isHex := src[i] == '&'
	isFloat := false
	if isHex {
		i++
		for i < int32(len(src)) && isHexDigit(src[i]) {
			i++
		}
	} else {
		for i < int32(len(src)) && (src[i] >= '0' && src[i] <= '9') {
			i++
		}
		if i < int32(len(src)) && src[i] == '.' {
			isFloat = true
			i++
			for i < int32(len(src)) && (src[i] >= '0' && src[i] <= '9') {
				i++
			}
		}
		if i < int32(len(src)) && (src[i] == 'E' || src[i] == 'e') &&
			i+1 < int32(len(src)) && (src[i+1] == '-' || src[i+1] == '+' || (src[i+1] >= '0' && src[i+1] <= '9')) {
			isFloat = true
			i++
			if src[i] == '-' || src[i] == '+' {
				i++
			}
			for i < int32(len(src)) && (src[i] >= '0' && src[i] <= '9') {
				i++
			}
		}
	}
	text := string(src[start:i])
	switch {
	case isHex:
		v, err := strconv.ParseUint(text[1:], 16, 64)
		if err != nil {
			st.emit(BadLine, 1)
			return i
		}
		st.emitInt(int64(v))
	case isFloat:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			st.emit(BadLine, 1)
			return i
		}
		pos := int32(len(st.exec))
		st.emit(FloatCon, 0, 0, 0, 0, 0, 0, 0, 0)
		Put64(st.exec, pos+1, int64(math.Float64bits(v)))
	default:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			st.emit(BadLine, 1)
			return i
		}
		st.emitInt(v)
	}
	return i
}

func (st *execState) emitInt(v int64) {
	if v == int64(int32(v)) {
		pos := int32(len(st.exec))
		st.emit(IntCon, 0, 0, 0, 0)
		Put32(st.exec, pos+1, int32(v))
	} else {
		pos := int32(len(st.exec))
		st.emit(Int64Con, 0, 0, 0, 0, 0, 0, 0, 0)
		Put64(st.exec, pos+1, v)
	}
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'A' && ch <= 'F') || (ch >= 'a' && ch <= 'f')
}

// lineNumber scans a literal line number and emits an XLineNum token.
func (st *execState) lineNumber(i int32) int32 {
	src := st.src
	n := int32(0)
	for i < int32(len(src)) && src[i] >= '0' && src[i] <= '9' {
		n = n*10 + int32(src[i]-'0')
		i++
	}
	pos := int32(len(st.exec))
	st.emit(XLineNum, 0, 0, 0, 0)
	Put32(st.exec, pos+1, n)
	return i
}

// stringCon scans a quoted string, de-duplicating embedded pairs of
// quotes, and emits a StringCon token.
func (st *execState) stringCon(i int32) int32 {
	src := st.src
	i++ // opening quote
	var text []byte
	for i < int32(len(src)) {
		if src[i] == '"' {
			if i+1 < int32(len(src)) && src[i+1] == '"' {
				text = append(text, '"')
				i += 2
				continue
			}
			i++
			break
		}
		text = append(text, src[i])
		i++
	}
	st.emit(StringCon, byte(len(text)), byte(len(text)>>8))
	st.emit(text...)
	return i
}

// buildExec derives the executable token section from the source tokens.
func buildExec(src []byte, execBase int32) []byte {
	st := &execState{src: src, execBase: execBase}
	i := int32(0)
	stmtStart := true
	firstOnLine := true
	for i < int32(len(src)) {
		i = skipSpaces(src, i)
		if i >= int32(len(src)) {
			break
		}
		ch := src[i]
		if stmtStart {
			st.stmtTok = ch
			st.onBranch = false
			stmtStart = false
			if ch == '*' {
				off := st.srcOff(i + 1)
				pos := int32(len(st.exec))
				st.emit(OsCmd, 0, 0)
				Put16(st.exec, pos+1, off)
				// A '*' command takes the rest of the line
				return st.exec
			}
		}
		switch {
		case ch == ':':
			st.emit(ch)
			stmtStart = true
			st.lineCtx = false
			i++
		case ch == '"':
			i = st.stringCon(i)
		case ch >= '0' && ch <= '9' && st.lineCtx:
			i = st.lineNumber(i)
			st.lineCtx = false
		case (ch >= '0' && ch <= '9') || ch == '&' || ch == '.':
			i = st.number(i)
			st.lineCtx = false
		case ch == '@' && i+1 < int32(len(src)) && src[i+1] == '%':
			st.emit(StaticVar, AtPercent)
			st.lineCtx = false
			i += 2
		case ch < 0x80 && IsNameStart(ch):
			i = st.name(i)
			st.lineCtx = false
		case ch >= 0x80:
			i = st.token(i, firstOnLine)
			if st.done {
				return st.exec
			}
		case ch == ',':
			st.emit(ch)
			if st.onBranch {
				st.lineCtx = true
			}
			i++
		default:
			st.emit(ch)
			st.lineCtx = false
			i++
		}
		if len(st.exec) != 0 {
			firstOnLine = false
		}
	}
	return st.exec
}

// token processes one source keyword token.
func (st *execState) token(i int32, firstOnLine bool) int32 {
	tok := st.src[i]
	switch tok {
	case If:
		st.emit(XIf, 0, 0, 0, 0)
	case Else:
		if firstOnLine {
			st.emit(XLhElse, 0, 0)
		} else {
			st.emit(XElse, 0, 0)
		}
		if st.stmtTok == If || st.stmtTok == On {
			st.lineCtx = true
			return i + 1
		}
	case Case:
		st.emit(XCase, 0, 0, 0, 0)
	case When:
		st.emit(XWhen, 0, 0)
	case Otherwise:
		st.emit(XOtherwise, 0, 0)
	case While:
		st.emit(XWhile, 0, 0)
	case Data:
		off := st.srcOff(i + 1)
		pos := int32(len(st.exec))
		st.emit(Data, 0, 0)
		Put16(st.exec, pos+1, off)
		st.done = true // rest of the line is data text
		return int32(len(st.src))
	case Rem:
		st.emit(Rem)
		st.done = true
		return int32(len(st.src))
	case Proc, Fn:
		off := st.srcOff(i)
		pos := int32(len(st.exec))
		st.emit(XFnProcAll, 0, 0, 0, 0)
		Put32(st.exec, pos+1, off)
		end := SkipName(st.src, i)
		if st.src[end-1] == '(' {
			end-- // the parameter list stays in the token stream
		}
		return end
	case Goto, Gosub, Restore, Then:
		st.emit(tok)
		st.lineCtx = true
		if st.stmtTok == On && (tok == Goto || tok == Gosub) {
			st.onBranch = true
		}
		return i + 1
	default:
		st.emit(tok)
	}
	st.lineCtx = false
	return i + 1
}

// name processes a variable name, recognising the static integer
// variables A% to Z% (@% is handled by the caller).
func (st *execState) name(i int32) int32 {
	src := st.src
	if src[i] >= 'A' && src[i] <= 'Z' && i+1 < int32(len(src)) && src[i+1] == '%' {
		if i+2 >= int32(len(src)) || (src[i+2] != '%' && !IsNameChar(src[i+2])) {
			st.emit(StaticVar, src[i]-'A')
			return i + 2
		}
	}
	off := st.srcOff(i)
	pos := int32(len(st.exec))
	st.emit(XVar, 0, 0, 0, 0)
	Put32(st.exec, pos+1, off)
	end := i
	for end < int32(len(src)) && IsNameChar(src[end]) {
		end++
	}
	if end < int32(len(src)) {
		switch src[end] {
		case '%':
			end++
			if end < int32(len(src)) && src[end] == '%' {
				end++
			}
		case '&', '#', '$':
			end++
		}
	}
	if end < int32(len(src)) && (src[end] == '(' || src[end] == '[') {
		end++
	}
	return end
}

// Tokenize converts one line of program text into a complete line
// record. Pass NoLine for immediate-mode fragments.
func Tokenize(text string, lineno int32) []byte {
	src := tokenizeSource(text)
	exec := buildExec(src, HeaderSize+int32(len(src))+1)
	record := make([]byte, 0, HeaderSize+len(src)+len(exec)+2)
	record = append(record, 0, 0, 0, 0, 0, 0)
	record = append(record, src...)
	record = append(record, EOL)
	execStart := len(record)
	record = append(record, exec...)
	record = append(record, EOL)
	Put16(record, LenField, int32(len(record)))
	Put16(record, NumField, lineno)
	Put16(record, ExecField, int32(execStart))
	return record
}

// AtPercent is the static variable index of '@%'.
const AtPercent = 26

// StaticVars is the number of static integer variables (A%-Z% and @%).
const StaticVars = 27

// EndMarker returns the sentinel record that terminates a program. Its
// executable section is a lone END so that control flowing off the end
// of the program finishes the run cleanly.
func EndMarker() []byte {
	record := []byte{0, 0, 0, 0, 0, 0, EOL, End, EOL}
	Put16(record, LenField, int32(len(record)))
	Put16(record, NumField, EndLineNo)
	Put16(record, ExecField, HeaderSize+1)
	return record
}

// List reconstructs the text of a line record from its source tokens.
func List(record []byte) string {
	var sb strings.Builder
	lineno := Get16(record, NumField)
	if lineno != int32(NoLine) {
		sb.WriteString(strconv.Itoa(int(lineno)))
		sb.WriteByte(' ')
	}
	for i := int32(SrcField); record[i] != EOL; i++ {
		ch := record[i]
		if ch < 0x80 {
			sb.WriteByte(ch)
		} else if spellings[ch] != "" {
			sb.WriteString(spellings[ch])
		}
	}
	return sb.String()
}
