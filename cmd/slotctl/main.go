// slotctl — консольный редактор доступности календарей для операторов.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/editor"
	"github.com/Leganyst/session-booking/internal/model"
)

const usage = `usage: slotctl [flags] <command> [args]

commands:
  login                 print an operator token (needs --email and --password)
  hash-password         print a bcrypt hash of --password for ADMIN_PASSWORD_HASH
  list [DATE]           print slots
  toggle DATE LABEL...  flip slots and commit them in one batch
  shell                 interactive editing session

flags:
`

type options struct {
	addr     string
	calendar string
	token    string
	email    string
	password string
	timeout  time.Duration
	dryRun   bool
}

func main() {
	opts := options{}
	fs := pflag.NewFlagSet("slotctl", pflag.ExitOnError)
	fs.StringVar(&opts.addr, "addr", envOr("SLOTCTL_ADDR", "localhost:50051"), "gRPC address of the booking server")
	fs.StringVarP(&opts.calendar, "calendar", "c", model.CalendarReservation, "calendar id")
	fs.StringVar(&opts.token, "token", os.Getenv("SLOTCTL_TOKEN"), "operator token")
	fs.StringVar(&opts.email, "email", "", "operator email for login")
	fs.StringVar(&opts.password, "password", os.Getenv("SLOTCTL_PASSWORD"), "operator password for login")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-call timeout")
	fs.BoolVarP(&opts.dryRun, "dry-run", "n", false, "toggle: show the batch without sending it")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}
	if err := run(opts, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "slotctl: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(opts options, cmd string, args []string) error {
	if cmd == "hash-password" {
		if opts.password == "" {
			return fmt.Errorf("hash-password needs --password or SLOTCTL_PASSWORD")
		}
		hash, err := auth.HashPassword(opts.password)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	conn, err := grpc.NewClient(opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", opts.addr, err)
	}
	defer conn.Close()

	ctx := context.Background()

	if cmd == "login" {
		token, err := login(ctx, opts, bookingpb.NewIdentityServiceClient(conn))
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	if opts.token == "" && opts.email != "" {
		if opts.token, err = login(ctx, opts, bookingpb.NewIdentityServiceClient(conn)); err != nil {
			return err
		}
	}

	ed := editor.New(editor.NewGRPCRemote(bookingpb.NewCalendarServiceClient(conn), opts.token), opts.calendar)
	callCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	err = ed.Refresh(callCtx)
	cancel()
	if err != nil {
		return err
	}

	switch cmd {
	case "list":
		day := ""
		if len(args) > 0 {
			day = args[0]
		}
		printSlots(os.Stdout, ed, day)
		return nil
	case "toggle":
		return toggleAndCommit(ctx, opts, ed, args)
	case "shell":
		sh := &shell{ed: ed, out: os.Stdout}
		return sh.run(ctx, os.Stdin)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func login(ctx context.Context, opts options, client bookingpb.IdentityServiceClient) (string, error) {
	if opts.email == "" || opts.password == "" {
		return "", fmt.Errorf("login needs --email and --password")
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	resp, err := client.Login(ctx, &bookingpb.LoginRequest{Email: opts.email, Password: opts.password})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return resp.Token, nil
}

// toggleAndCommit принимает DATE LABEL... или пары DATE/LABEL.
func toggleAndCommit(ctx context.Context, opts options, ed *editor.Editor, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("toggle needs DATE LABEL... or DATE/LABEL pairs")
	}

	if strings.Contains(args[0], "/") {
		for _, pair := range args {
			date, label, ok := strings.Cut(pair, "/")
			if !ok {
				return fmt.Errorf("bad slot %q, want DATE/LABEL", pair)
			}
			if _, err := ed.Toggle(date, label); err != nil {
				return err
			}
		}
	} else {
		if len(args) < 2 {
			return fmt.Errorf("toggle needs DATE LABEL...")
		}
		for _, label := range args[1:] {
			if _, err := ed.Toggle(args[0], label); err != nil {
				return err
			}
		}
	}

	printPending(os.Stdout, ed)
	if opts.dryRun {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	res, err := ed.CommitAll(ctx)
	if err != nil {
		return err
	}
	printCommit(os.Stdout, res)
	return nil
}
