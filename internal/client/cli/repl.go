package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Login(ctx context.Context, email string) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	UpdateProfile(ctx context.Context, fullName, email string, interactive bool) error
	ChangePassword(ctx context.Context) error
	UploadPicture(ctx context.Context, path string) error
	DeletePicture(ctx context.Context) error
	ListUsers(ctx context.Context, page int) error
	ShowUser(ctx context.Context, id int64) error
	SetUserActive(ctx context.Context, id int64, active bool) error
	Stats(ctx context.Context) error
	Dashboard(ctx context.Context, page int) error
	CheckPassword(ctx context.Context, password string) error
	Route(path string) error
}

const (
	helpSignedOut = "Available commands: login [email], register, check, goto <path>, exit"
	helpSignedIn  = "Available commands: whoami, profile, passwd, picture upload <file>, picture delete, " +
		"check, goto <path>, logout, exit"

	helpAdmin = "Admin commands: users [page], user <id>, activate <id>, deactivate <id>, stats, dashboard [page]"
)

// runREPL starts a read–eval–print loop over the client commands.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on 'a'. in must be the reader the commands prompt
// from, otherwise buffered input is lost between them. The loop exits on EOF
// or when the user types "exit" or "quit".
//
// Errors returned by command handlers are passed to report and the loop
// goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, report func(error), in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("usermgr (%s)> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			switch {
			case a.isAdmin():
				printlnFn(helpSignedIn)
				printlnFn(helpAdmin)
			case a.isLoggedIn():
				printlnFn(helpSignedIn)
			default:
				printlnFn(helpSignedOut)
			}

		case "login":
			err = a.Login(ctx, arg(args, 0))

		case "register", "signup":
			err = a.Register(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "whoami", "me":
			err = a.WhoAmI(ctx)

		case "profile":
			err = a.UpdateProfile(ctx, "", "", true)

		case "passwd":
			err = a.ChangePassword(ctx)

		case "picture":
			switch arg(args, 0) {
			case "upload":
				if len(args) < 2 {
					printlnFn("Usage: picture upload <file>")
					continue
				}
				err = a.UploadPicture(ctx, args[1])
			case "delete":
				err = a.DeletePicture(ctx)
			default:
				printlnFn("Usage: picture upload <file> | picture delete")
			}

		case "users":
			page, ok := pageArg(args)
			if !ok {
				printlnFn("Usage: users [page]")
				continue
			}
			err = a.ListUsers(ctx, page)

		case "user", "activate", "deactivate":
			id, perr := strconv.ParseInt(arg(args, 0), 10, 64)
			if perr != nil {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			switch cmd {
			case "user":
				err = a.ShowUser(ctx, id)
			case "activate":
				err = a.SetUserActive(ctx, id, true)
			default:
				err = a.SetUserActive(ctx, id, false)
			}

		case "stats":
			err = a.Stats(ctx)

		case "dashboard":
			page, ok := pageArg(args)
			if !ok {
				printlnFn("Usage: dashboard [page]")
				continue
			}
			err = a.Dashboard(ctx, page)

		case "check":
			err = a.CheckPassword(ctx, "")

		case "goto":
			if len(args) == 0 {
				printlnFn("Usage: goto <path>")
				continue
			}
			err = a.Route(args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			report(err)
		}
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func pageArg(args []string) (int, bool) {
	if len(args) == 0 {
		return 1, true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
