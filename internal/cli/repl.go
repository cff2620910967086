package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Whoami(ctx context.Context) error
	Tables(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	Count(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Files(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// runREPL starts the read-eval-print loop for the mixc shell.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as arguments, and dispatches to methods on 'a'.
// Unknown commands are reported back to the user. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mixc %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, tables, list <table>, get <table> <id>, count <table>, search <table> <keyword>, files [folder], upload <folder> <path>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "tables":
			_ = a.Tables(ctx)

		case "l", "list":
			_ = a.List(ctx, args)

		case "get":
			_ = a.Get(ctx, args)

		case "count":
			_ = a.Count(ctx, args)

		case "search":
			_ = a.Search(ctx, args)

		case "files":
			_ = a.Files(ctx, args)

		case "upload":
			_ = a.Upload(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
