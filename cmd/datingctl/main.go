// Command datingctl registers, logs in and uploads photos against the
// dating API.
//
//	datingctl register -username alice -known-as Alice -gender female -dob 1995-03-03 -city Lima -country Peru
//	datingctl login -username alice
//	datingctl upload [-concurrency 2] photo1.jpg photo2.png
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/datingapp/dating-api/pkg/logger"
)

const usage = `usage: datingctl <command> [flags]

commands:
  register   create an account
  login      log in and store the session token
  logout     revoke the stored token
  upload     upload image files to your profile

environment:
  DATINGCTL_URL   API base URL (default http://localhost:8080)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Init(logger.Options{Level: os.Getenv("DATINGCTL_LOG_LEVEL"), Pretty: true, Output: os.Stderr})
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Error().Err(err).Msg("datingctl")
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, log zerolog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	env := newEnv(stdin, stdout, log)
	switch args[0] {
	case "register":
		return env.register(ctx, args[1:])
	case "login":
		return env.login(ctx, args[1:])
	case "logout":
		return env.logout(ctx, args[1:])
	case "upload":
		return env.upload(ctx, args[1:])
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return errUsage
}
