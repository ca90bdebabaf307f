// Command bfskill scores a Brainfuck program against a target string
// using itp's optimised runner and skill formula, without needing the
// HTTP surface or any hardware.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/niklas-simon/brainfuck-processing-unit/itp"
)

func main() {
	codePath := flag.String("code", "", "path to a Brainfuck source file")
	target := flag.String("target", "", "target output string")
	generate := flag.Bool("generate", false, "generate a random target instead of -target")
	interactive := flag.Bool("interactive", false, "prompt for the target string on a raw terminal instead of -target")
	flag.Parse()

	if *codePath == "" {
		fmt.Fprintln(os.Stderr, "bfskill: -code is required")
		os.Exit(1)
	}
	if *target == "" && !*generate && !*interactive {
		fmt.Fprintln(os.Stderr, "bfskill: one of -target, -generate or -interactive is required")
		os.Exit(1)
	}

	code, err := os.ReadFile(*codePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bfskill: %v\n", err)
		os.Exit(1)
	}

	want := *target
	switch {
	case *generate:
		want = itp.GenerateTarget()
		fmt.Printf("target: %q\n", want)
	case *interactive:
		want, err = readTargetInteractive()
		if err != nil {
			fmt.Fprintf(os.Stderr, "bfskill: %v\n", err)
			os.Exit(1)
		}
	}

	score := itp.Skill(string(code), want)
	fmt.Printf("skill: %.4f\n", score)
}

// readTargetInteractive puts the controlling terminal into raw mode and
// reads a single line, so the target string can contain control bytes
// without the tty mangling the echoed prompt.
func readTargetInteractive() (string, error) {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	line, err := term.NewTerminal(rw, "target> ").ReadLine()
	if err != nil {
		return "", fmt.Errorf("reading target: %w", err)
	}
	return line, nil
}
