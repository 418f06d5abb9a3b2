package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chirper/internal/client/messages"
	"github.com/dmitrijs2005/chirper/internal/client/router"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	allowed(screen router.Screen) bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Feed(ctx context.Context) error
	Profile(ctx context.Context) error
	User(ctx context.Context, handle string) error
	Search(ctx context.Context, prefix string) error
	Post(ctx context.Context) error
	Edit(ctx context.Context, postID string) error
	Delete(ctx context.Context, postID string) error
	Settings(ctx context.Context) error
	Logout(ctx context.Context) error
}

// commandScreens names the screen each command belongs to. A command is
// only run while its screen is part of the mounted stack.
var commandScreens = map[string]router.Screen{
	"login":    router.ScreenLogin,
	"signup":   router.ScreenSignup,
	"feed":     router.ScreenFeed,
	"post":     router.ScreenFeed,
	"edit":     router.ScreenFeed,
	"delete":   router.ScreenFeed,
	"profile":  router.ScreenProfile,
	"user":     router.ScreenUser,
	"search":   router.ScreenSearch,
	"settings": router.ScreenSettings,
	"logout":   router.ScreenSettings,
}

// runREPL starts a simple read–eval–print loop for the chirper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Signed out:
//	  - help              show available commands
//	  - login             sign in with email or username
//	  - signup            create an account
//	  - exit | quit       leave the program
//
//	Signed in:
//	  - feed              everyone's posts, newest first
//	  - profile           your own posts
//	  - user <handle>     someone else's posts
//	  - search <prefix>   live username search
//	  - post              write a post
//	  - edit <id>         change one of your posts on the open list
//	  - delete <id>       remove one of your posts on the open list
//	  - settings          account details
//	  - logout            sign out
//	  - exit | quit       leave the program
//
// Errors returned by command handlers are shown as user-facing messages and
// the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("chirp> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		if screen, ok := commandScreens[cmd]; ok && !a.allowed(screen) {
			if a.isLoggedIn() {
				printlnFn("Already signed in. Type 'logout' first.")
			} else {
				printlnFn("Sign in first. Type 'login' or 'signup'.")
			}
			continue
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: feed, profile, user <handle>, search <prefix>, post, edit <id>, delete <id>, settings, logout, exit")
			} else {
				printlnFn("Available commands: login, signup, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "signup":
			err = a.Signup(ctx)

		case "feed":
			err = a.Feed(ctx)

		case "profile":
			err = a.Profile(ctx)

		case "user":
			if len(args) == 0 {
				printlnFn("Usage: user <handle>")
				continue
			}
			err = a.User(ctx, args[0])

		case "search":
			if len(args) == 0 {
				printlnFn("Usage: search <prefix>")
				continue
			}
			err = a.Search(ctx, args[0])

		case "post":
			err = a.Post(ctx)

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			err = a.Edit(ctx, args[0])

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			err = a.Delete(ctx, args[0])

		case "settings":
			err = a.Settings(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", messages.For(err))
		}
	}
}
