package errs

/*
 * BasicV - Error kind tests
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

import "testing"

func TestMessages(t *testing.T) {
	e := New(Silly)
	if e.Message() != "Silly" {
		t.Errorf("got %q", e.Message())
	}
	e = New(LineMiss, 70)
	if e.Message() != "Line 70 is missing" {
		t.Errorf("got %q", e.Message())
	}
	if e.Line != -1 {
		t.Errorf("fresh error carries line %d", e.Line)
	}
}

func TestRaisePanics(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*Error)
		if !ok || e.Kind != Escape {
			t.Errorf("recovered %v", r)
		}
	}()
	Raise(Escape)
}

func TestRaiseUser(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*Error)
		if !ok || e.Kind != Kind(123) || e.Message() != "x" {
			t.Errorf("recovered %v", r)
		}
	}()
	RaiseUser(123, "x")
}
