package command

/*
 * BasicV - Interactive command loop
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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	osexec "os/exec"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	env "github.com/xyproto/env/v2"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/exec"
)

// editor commands understood by the loop; anything else is handed to
// the interpreter as an immediate statement.
var editorCommands = []string{
	"EDIT", "LIST", "LOAD", "NEW", "SAVE",
}

// Shell is the interactive front end around one interpreter.
type Shell struct {
	Interp *exec.Interp
}

// reportError prints an interpreter error the way the command prompt
// reports it, with the line number when there is one.
func (sh *Shell) reportError(e *errs.Error) {
	if e.Line >= 0 {
		fmt.Fprintf(sh.Interp.Out, "%s at line %d\n", e.Message(), e.Line)
	} else {
		fmt.Fprintf(sh.Interp.Out, "%s\n", e.Message())
	}
}

// oneCommand processes a command line: a numbered line edits the
// program, an editor command runs here, everything else is executed
// immediately. Returns the exit code when QUIT was used.
func (sh *Shell) oneCommand(text string) (int, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	if trimmed[0] >= '0' && trimmed[0] <= '9' {
		n := 0
		for n < len(trimmed) && trimmed[n] >= '0' && trimmed[n] <= '9' {
			n++
		}
		lineno, _ := strconv.Atoi(trimmed[:n])
		err := sh.Interp.EditLine(int32(lineno), strings.TrimLeft(trimmed[n:], " "))
		if err != nil {
			fmt.Fprintln(sh.Interp.Out, err.Error())
		}
		return 0, false
	}
	word := strings.ToUpper(trimmed)
	arg := ""
	if n := strings.IndexByte(trimmed, ' '); n >= 0 {
		word = strings.ToUpper(trimmed[:n])
		arg = strings.TrimSpace(trimmed[n+1:])
	}
	switch word {
	case "LIST":
		for _, line := range sh.Interp.ListProgram() {
			fmt.Fprintln(sh.Interp.Out, line)
		}
		return 0, false
	case "NEW":
		sh.Interp.LoadProgram("")
		return 0, false
	case "LOAD":
		data, err := os.ReadFile(strings.Trim(arg, "\""))
		if err != nil {
			fmt.Fprintln(sh.Interp.Out, err.Error())
			return 0, false
		}
		if err := sh.Interp.LoadProgram(string(data)); err != nil {
			fmt.Fprintln(sh.Interp.Out, err.Error())
		}
		return 0, false
	case "SAVE":
		text := strings.Join(sh.Interp.ListProgram(), "\n") + "\n"
		if err := os.WriteFile(strings.Trim(arg, "\""), []byte(text), 0o644); err != nil {
			fmt.Fprintln(sh.Interp.Out, err.Error())
		}
		return 0, false
	case "EDIT":
		sh.editProgram()
		return 0, false
	}
	code, quit, e := sh.Interp.Immediate(trimmed)
	if e != nil {
		sh.reportError(e)
	}
	return code, quit
}

// editProgram round-trips the program through the user's editor.
func (sh *Shell) editProgram() {
	file, err := os.CreateTemp("", "basicv-edit")
	if err != nil {
		fmt.Fprintln(sh.Interp.Out, err.Error())
		return
	}
	name := file.Name()
	file.WriteString(strings.Join(sh.Interp.ListProgram(), "\n") + "\n")
	file.Close()
	defer os.Remove(name)
	editor := env.Str("BASICV_EDITOR", env.Str("EDITOR", "vi"))
	cmd := osexec.Command(editor, name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(sh.Interp.Out, err.Error())
		return
	}
	data, err := os.ReadFile(name)
	if err != nil {
		fmt.Fprintln(sh.Interp.Out, err.Error())
		return
	}
	if err := sh.Interp.LoadProgram(string(data)); err != nil {
		fmt.Fprintln(sh.Interp.Out, err.Error())
	}
}

// Loop reads and runs commands until QUIT. Command editing and history
// come from liner.
func (sh *Shell) Loop() int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(text string) []string {
		upper := strings.ToUpper(text)
		var matches []string
		for _, cmd := range editorCommands {
			if strings.HasPrefix(cmd, upper) {
				matches = append(matches, cmd)
			}
		}
		return matches
	})

	for {
		text, err := line.Prompt(">")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return 0
			}
			slog.Error("error reading line: " + err.Error())
			return 1
		}
		if strings.TrimSpace(text) != "" {
			line.AppendHistory(text)
		}
		code, quit := sh.oneCommand(text)
		if quit {
			return code
		}
	}
}
