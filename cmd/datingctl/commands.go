package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/datingapp/dating-api/internal/client/api"
	"github.com/datingapp/dating-api/internal/client/uploader"
)

const defaultURL = "http://localhost:8080"

type session struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

type env struct {
	in     io.Reader
	stdin  *bufio.Reader
	stdout io.Writer
	log    zerolog.Logger
}

func newEnv(stdin io.Reader, stdout io.Writer, log zerolog.Logger) *env {
	return &env{in: stdin, stdin: bufio.NewReader(stdin), stdout: stdout, log: log}
}

func baseURL() string {
	if u := os.Getenv("DATINGCTL_URL"); u != "" {
		return u
	}
	return defaultURL
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".datingctl-token"
	}
	return filepath.Join(dir, "datingctl", "session.json")
}

func (e *env) password(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	fmt.Fprint(e.stdout, "Password: ")
	if f, ok := e.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(e.stdout)
		return string(b), err
	}
	line, err := e.stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (e *env) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req api.RegisterRequest
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Password, "password", "", "password (prompted when empty)")
	fs.StringVar(&req.Gender, "gender", "", "gender")
	fs.StringVar(&req.KnownAs, "known-as", "", "display name")
	fs.StringVar(&req.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	fs.StringVar(&req.City, "city", "", "city")
	fs.StringVar(&req.Country, "country", "", "country")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.Username == "" {
		return errors.New("register: -username is required")
	}
	pw, err := e.password(req.Password)
	if err != nil {
		return err
	}
	req.Password = pw

	u, err := api.New(baseURL(), nil).Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "registered %s (id %d)\n", u.Username, u.ID)
	return nil
}

func (e *env) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when empty)")
	tokenFile := fs.String("token-file", defaultTokenFile(), "where to store the session")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("login: -username is required")
	}
	pw, err := e.password(*password)
	if err != nil {
		return err
	}

	client := api.New(baseURL(), nil)
	sess, err := client.Login(ctx, *username, pw)
	if err != nil {
		return err
	}
	if err := saveSession(*tokenFile, session{URL: client.BaseURL(), Token: sess.Token, UserID: sess.UserID}); err != nil {
		return err
	}
	e.log.Debug().Str("file", *tokenFile).Msg("session saved")
	fmt.Fprintf(e.stdout, "logged in as %s (id %d)\n", sess.User.Username, sess.UserID)
	return nil
}

func (e *env) logout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	tokenFile := fs.String("token-file", defaultTokenFile(), "stored session")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := loadSession(*tokenFile)
	if err != nil {
		return err
	}
	if err := api.New(sess.URL, nil).Logout(ctx, sess.Token); err != nil && !api.IsUnauthorized(err) {
		return err
	}
	return os.Remove(*tokenFile)
}

func (e *env) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	tokenFile := fs.String("token-file", defaultTokenFile(), "stored session")
	concurrency := fs.Int("concurrency", 1, "parallel uploads")
	description := fs.String("description", "", "caption applied to every file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("upload: no files given")
	}
	sess, err := loadSession(*tokenFile)
	if err != nil {
		return err
	}

	up := uploader.New(api.New(sess.URL, nil), sess.UserID, sess.Token, uploader.Options{
		Concurrency: *concurrency,
		Log:         &e.log,
		OnSuccess: func(item uploader.Item, p uploader.Photo) {
			suffix := ""
			if p.IsMain {
				suffix = " (main)"
			}
			fmt.Fprintf(e.stdout, "uploaded %s -> %s%s\n", item.Name, p.URL, suffix)
		},
		OnError: func(item uploader.Item, err error) {
			fmt.Fprintf(e.stdout, "failed %s: %v\n", item.Name, err)
		},
	})

	var staged int
	for _, path := range fs.Args() {
		it, err := up.AddFile(path)
		if err != nil {
			fmt.Fprintf(e.stdout, "skipped %v\n", err)
			continue
		}
		if *description != "" {
			if err := up.SetDescription(it.ID, *description); err != nil {
				return fmt.Errorf("caption %s: %w", it.Name, err)
			}
		}
		staged++
	}
	if staged == 0 {
		return errors.New("upload: nothing to upload")
	}
	return up.UploadAll(ctx)
}

func saveSession(path string, s session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func loadSession(path string) (session, error) {
	var s session
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, errors.New("not logged in, run datingctl login first")
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("read session %s: %w", path, err)
	}
	return s, nil
}
