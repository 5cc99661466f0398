package host

/*
 * BasicV - Host gateway
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
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"
)

// MaxSysParms is the most parameters a SYS call may pass or return.
const MaxSysParms = 16

// Host is the interpreter's view of the outside world. Everything that
// blocks or touches the operating system goes through here.
type Host interface {
	// EscapePoll reports, without blocking, whether escape is pending
	// and consumes the flag.
	EscapePoll() bool
	SetEscape()
	ClearEscape()

	// OSCli runs a '*' command. When capture is true the command's
	// output is left in a temporary file whose path is returned; the
	// caller reads and removes it.
	OSCli(command string, capture bool) (string, error)

	// Sys makes a SWI call. Integer parameters arrive in in[], string
	// parameters in strs[] (with a placeholder in in[]).
	Sys(swino int64, in []int64, strs []string) (out [MaxSysParms]int64, flags int64, err error)
	SysNum(name string) (int64, bool)

	// CallNative is the CALL statement's target; unsupported here.
	CallNative(address int64, argv []int64) error

	WaitDelay(centiseconds int32)
	Wait()
	Monotonic() int32 // centiseconds since start

	OpenOut(path string) (io.WriteCloser, error)
	ReadLine() (string, error)
}

// SWI numbers understood by the system gateway.
const (
	swiOSWrite0            = 0x02
	swiOSNewLine           = 0x03
	swiOSReadMonotonicTime = 0x42
	swiBasicVersion        = 0x44e00
)

var swiNames = map[string]int64{
	"OS_Write0":            swiOSWrite0,
	"OS_NewLine":           swiOSNewLine,
	"OS_ReadMonotonicTime": swiOSReadMonotonicTime,
	"Basic_Version":        swiBasicVersion,
}

// Version is reported by SYS "Basic_Version".
const Version = 0x00010000

// System is the real host gateway.
type System struct {
	Out    io.Writer
	escape atomic.Bool
	start  time.Time
	stdin  *bufio.Reader
}

// NewSystem creates a gateway writing terminal output to out.
func NewSystem(out io.Writer) *System {
	return &System{Out: out, start: time.Now(), stdin: bufio.NewReader(os.Stdin)}
}

func (s *System) EscapePoll() bool {
	return s.escape.Swap(false)
}

func (s *System) SetEscape() {
	s.escape.Store(true)
}

func (s *System) ClearEscape() {
	s.escape.Store(false)
}

// OSCli hands a command to the shell. Output capture goes through a
// temporary file, as the TO form of OSCLI reads it back line by line.
func (s *System) OSCli(command string, capture bool) (string, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	if !capture {
		cmd.Stdout = s.Out
		cmd.Stderr = s.Out
		cmd.Run()
		return "", nil
	}
	file, err := os.CreateTemp("", "basicv-oscli")
	if err != nil {
		return "", err
	}
	cmd.Stdout = file
	cmd.Stderr = file
	cmd.Run()
	name := file.Name()
	file.Close()
	return name, nil
}

func (s *System) Sys(swino int64, in []int64, strs []string) (out [MaxSysParms]int64, flags int64, err error) {
	switch swino {
	case swiOSWrite0:
		if len(strs) != 0 {
			io.WriteString(s.Out, strs[0])
		}
	case swiOSNewLine:
		io.WriteString(s.Out, "\n")
	case swiOSReadMonotonicTime:
		out[0] = int64(s.Monotonic())
	case swiBasicVersion:
		out[0] = Version
	default:
		return out, 0, fmt.Errorf("unknown SWI &%X", swino)
	}
	return out, 0, nil
}

func (s *System) SysNum(name string) (int64, bool) {
	n, ok := swiNames[name]
	return n, ok
}

func (s *System) CallNative(address int64, argv []int64) error {
	return fmt.Errorf("CALL is not supported")
}

func (s *System) WaitDelay(centiseconds int32) {
	if centiseconds > 0 {
		time.Sleep(time.Duration(centiseconds) * 10 * time.Millisecond)
	}
}

// Wait idles until the next "vertical sync"; a nominal 20ms here.
func (s *System) Wait() {
	time.Sleep(20 * time.Millisecond)
}

func (s *System) Monotonic() int32 {
	return int32(time.Since(s.start) / (10 * time.Millisecond))
}

func (s *System) OpenOut(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (s *System) ReadLine() (string, error) {
	line, err := s.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	for len(line) != 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}
