package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"telenotify/internal/config"
	"telenotify/internal/message"
	"telenotify/notify"
)

// errNotDelivered makes the process exit non-zero when the send failed.
// The notifier has already logged the reason.
var errNotDelivered = errors.New("notification was not delivered")

// errUsage marks argument errors; usage is printed for these only.
var errUsage = errors.New("invalid arguments")

const usage = `telenotify <type> <message> [--key=value ...] [flags]

Flags:
  --config=PATH       settings file (default $TELENOTIFY_CONFIG or ./.env)
  --log-level=LEVEL   trace, debug, info, warn, error (default info)
  --dry-run           print the formatted message instead of sending it
  -h, --help          show this help

Any other --key=value pair is attached to the message as an extra field,
in the order given.`

// invocation is the parsed command line.
type invocation struct {
	Type       string
	Message    string
	Extras     message.Extras
	ConfigPath string
	LogLevel   string
	DryRun     bool
	Help       bool
}

// newRootCmd builds the command. Flag parsing is done by parseArgs because
// arbitrary --key=value pairs have to be accepted in order.
func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telenotify <type> <message> [--key=value ...]",
		Short: "Send a formatted notification to a Telegram chat",
		Long: `telenotify formats an event (backup, error, warning, new_user, ...) together
with optional key/value extras into a Markdown message and posts it to a
Telegram chat through the Bot API.

Credentials are read from a KEY=VALUE settings file containing
TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID. Environment variables of the same
name override the file.`,
		Example: `  telenotify backup "Backup završen" --size=2.5MB --duration=3m12s
  telenotify error "Database unreachable" --server=db1 --config=/etc/telenotify.env`,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := parseArgs(args)
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Usage:\n  %s\n", usage)
				return err
			}
			if inv.Help {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\nUsage:\n  %s\n", cmd.Long, usage)
				return nil
			}
			if err := setupLogging(cmd.ErrOrStderr(), inv.LogLevel); err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), inv)
		},
	}
}

// Execute runs the CLI and exits non-zero on any failure.
// It is called by main() and should only be invoked once.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNotDelivered) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// run loads configuration (unless dry-running), formats and sends.
func run(ctx context.Context, out io.Writer, inv invocation) error {
	if inv.DryRun {
		_, err := fmt.Fprintln(out, message.NewFormatter().Format(inv.Type, inv.Message, inv.Extras))
		return err
	}

	path := inv.ConfigPath
	if path == "" {
		path = config.PathFromEnv()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log.Debug().
		Str("type", inv.Type).
		Int("extras", len(inv.Extras)).
		Str("config", path).
		Msg("Sending notification")

	if !notify.New(cfg).Send(ctx, inv.Type, inv.Message, inv.Extras) {
		return errNotDelivered
	}
	log.Info().Str("type", inv.Type).Msg("Notification sent")
	return nil
}

// setupLogging sends human-readable logs to w at the given level.
func setupLogging(w io.Writer, level string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("%w: unknown log level %q", errUsage, level)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()
	return nil
}

// parseArgs splits positional type/message from --key=value extras.
// "--key value" is accepted too when the next argument is not a flag.
// Everything after a bare "--" is positional.
func parseArgs(args []string) (invocation, error) {
	var inv invocation
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if arg == "-h" || arg == "--help" {
			inv.Help = true
			return inv, nil
		}
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if name == "" {
			return inv, fmt.Errorf("%w: empty flag name in %q", errUsage, arg)
		}

		if name == "dry-run" {
			if !hasValue {
				inv.DryRun = true
				continue
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return inv, fmt.Errorf("%w: --dry-run expects a boolean, got %q", errUsage, value)
			}
			inv.DryRun = b
			continue
		}

		if !hasValue {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				return inv, fmt.Errorf("%w: missing value for --%s", errUsage, name)
			}
			i++
			value = args[i]
		}

		switch name {
		case "config":
			inv.ConfigPath = value
		case "log-level":
			inv.LogLevel = value
		default:
			inv.Extras.Set(name, value)
		}
	}

	if len(positional) != 2 {
		return inv, fmt.Errorf("%w: expected <type> and <message>, got %d positional argument(s)", errUsage, len(positional))
	}
	inv.Type = strings.TrimSpace(positional[0])
	inv.Message = positional[1]
	if inv.Type == "" {
		return inv, fmt.Errorf("%w: type must not be empty", errUsage)
	}
	return inv, nil
}
