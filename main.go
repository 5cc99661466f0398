/*
 * BasicV - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	env "github.com/xyproto/env/v2"

	"github.com/rcornwell/BasicV/basic/exec"
	"github.com/rcornwell/BasicV/basic/host"
	"github.com/rcornwell/BasicV/basic/workspace"
	"github.com/rcornwell/BasicV/command"
	logger "github.com/rcornwell/BasicV/util/logger"
)

func main() {
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optSize := getopt.IntLong("size", 's', 0, "Workspace size in kilobytes")
	optQuit := getopt.BoolLong("quit", 'q', "Leave after running the program")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("[program]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	slog.SetDefault(slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel})))

	size := int32(env.Int("BASICV_WORKSPACE", 0)) * 1024
	if *optSize != 0 {
		size = int32(*optSize) * 1024
	}
	if size == 0 {
		size = workspace.DefaultSize
	}

	sys := host.NewSystem(os.Stdout)
	ip := exec.New(workspace.New(size), sys, os.Stdout)
	ip.SetCascadeIf(env.Bool("BASICV_CASCADE_IF") || !env.Has("BASICV_CASCADE_IF"))

	// Escape comes in as an interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)
	go func() {
		for range sigChan {
			sys.SetEscape()
		}
	}()

	args := getopt.Args()
	if len(args) != 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
		if err := ip.LoadProgram(string(data)); err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
		code, quit, e := ip.Run(-1)
		if e != nil {
			if e.Line >= 0 {
				fmt.Fprintf(os.Stdout, "%s at line %d\n", e.Message(), e.Line)
			} else {
				fmt.Fprintf(os.Stdout, "%s\n", e.Message())
			}
			os.Exit(1)
		}
		if quit || *optQuit {
			os.Exit(code)
		}
	}

	sh := &command.Shell{Interp: ip}
	os.Exit(sh.Loop())
}
