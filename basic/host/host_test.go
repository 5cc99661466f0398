package host

/*
 * BasicV - Host gateway tests
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
	"strings"
	"testing"
)

func TestEscapeFlag(t *testing.T) {
	s := NewSystem(&strings.Builder{})
	if s.EscapePoll() {
		t.Errorf("escape set on a fresh gateway")
	}
	s.SetEscape()
	if !s.EscapePoll() {
		t.Errorf("escape not seen")
	}
	if s.EscapePoll() {
		t.Errorf("escape poll did not consume the flag")
	}
	s.SetEscape()
	s.ClearEscape()
	if s.EscapePoll() {
		t.Errorf("escape survived ClearEscape")
	}
}

func TestSysWrite(t *testing.T) {
	var out strings.Builder
	s := NewSystem(&out)
	n, ok := s.SysNum("OS_Write0")
	if !ok {
		t.Fatalf("OS_Write0 unknown")
	}
	if _, _, err := s.Sys(n, []int64{0}, []string{"hello"}); err != nil {
		t.Fatalf("Sys failed: %v", err)
	}
	if out.String() != "hello" {
		t.Errorf("output %q", out.String())
	}
	if _, _, err := s.Sys(0x123456, nil, nil); err == nil {
		t.Errorf("unknown SWI did not fail")
	}
}

func TestSysVersion(t *testing.T) {
	s := NewSystem(&strings.Builder{})
	n, _ := s.SysNum("Basic_Version")
	out, _, err := s.Sys(n, nil, nil)
	if err != nil || out[0] != Version {
		t.Errorf("version SWI gave %v, %v", out[0], err)
	}
}
