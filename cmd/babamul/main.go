package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boom-astro/babamul/internal/api"
	"github.com/boom-astro/babamul/internal/config"
	"github.com/boom-astro/babamul/internal/domain"
)

// command runs one subcommand against client, writing results to out.
type command struct {
	usage string
	run   func(ctx context.Context, client *api.Client, args []string, out io.Writer) error
}

var commands = map[string]command{
	"signup":      {"signup -email EMAIL", runSignup},
	"activate":    {"activate -email EMAIL -code CODE", runActivate},
	"login":       {"login -email EMAIL -password PASSWORD", runLogin},
	"profile":     {"profile", runProfile},
	"credentials": {"credentials list | create -name NAME | delete -id ID", runCredentials},
	"alerts":      {"alerts -survey S (-object-id ID | -ra RA -dec DEC -radius R) [-start-jd -end-jd -min-mag -max-mag -min-drb -max-drb]", runAlerts},
	"cone":        {"cone -survey S -ra RA -dec DEC -radius R", runCone},
	"object":      {"object -survey S -id ID [-cross-matches]", runObject},
	"photometry":  {"photometry -survey S -id ID", runPhotometry},
	"cutouts":     {"cutouts -survey S -candid N -out DIR", runCutouts},
	"search":      {"search -id PREFIX [-limit N]", runSearch},
	"crossmatch":  {"crossmatch -survey S -ids ID,ID,... [-concurrency N]", runCrossMatch},
}

func main() {
	global := flag.NewFlagSet("babamul", flag.ExitOnError)
	logLevel := global.String("log-level", "warn", "Log level: debug, info, warn, error")
	envFile := global.String("env-file", ".env", "dotenv file loaded before reading the environment")
	timeout := global.Duration("timeout", 0, "Request timeout (overrides BABAMUL_API_TIMEOUT)")
	global.Usage = func() { printUsage(global.Output()) }
	global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	client, err := newClient(*envFile, *timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("configure api client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, client, global.Args()[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Str("command", name).Msg("command failed")
	}
}

// bulkConfig holds fan-out defaults resolved from the environment.
var bulkConfig = config.DefaultBulkConfig()

func newClient(envFile string, timeout time.Duration) (*api.Client, error) {
	if err := config.LoadDotenv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.APIFromEnv()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if bulkConfig, err = config.BulkFromEnv(); err != nil {
		return nil, err
	}
	return api.New(cfg, api.WithBatchSize(bulkConfig.BatchSize))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: babamul [-log-level L] [-env-file F] [-timeout D] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// optFloat is a float flag that remembers whether it was set.
type optFloat struct {
	v *float64
}

func (f *optFloat) String() string {
	if f.v == nil {
		return ""
	}
	return strconv.FormatFloat(*f.v, 'f', -1, 64)
}

func (f *optFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.v = &v
	return nil
}

// surveyFlag parses -survey into a domain.Survey.
type surveyFlag struct {
	survey domain.Survey
}

func (f *surveyFlag) String() string { return f.survey.Slug() }

func (f *surveyFlag) Set(s string) error {
	survey, err := domain.ParseSurvey(s)
	if err != nil {
		return err
	}
	f.survey = survey
	return nil
}

func (f *surveyFlag) get() (domain.Survey, error) {
	if f.survey == "" {
		return "", fmt.Errorf("%w: -survey is required", domain.ErrInvalidQuery)
	}
	return f.survey, nil
}
