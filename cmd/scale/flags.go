package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/udisondev/scale/pkg/config"
)

// cliOptions разобранные аргументы командной строки.
type cliOptions struct {
	help       bool
	initOnly   bool
	configPath string

	port    int
	users   string
	journal string

	flags *pflag.FlagSet
}

func newFlagSet(opts *cliOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("scale", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.BoolVarP(&opts.help, "help", "h", false, "show this help")
	fs.IntVarP(&opts.port, "port", "p", 33333, "port number")
	fs.StringVarP(&opts.users, "users", "c", "/scale.conf", "user database file")
	fs.StringVarP(&opts.journal, "log", "l", "/log/scale.log", "log file")
	fs.StringVar(&opts.configPath, "config", "", "path to config file (default: XDG config dir)")
	fs.BoolVar(&opts.initOnly, "init", false, "initialize app directory and exit")

	return fs
}

// parseArgs разбирает аргументы. Ошибки разбора не печатаются.
// -h в любой позиции означает справку, остальные аргументы тогда не проверяются.
func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := newFlagSet(opts)
	fs.SetOutput(io.Discard)
	opts.flags = fs

	if wantsHelp(args) {
		opts.help = true
		return opts, nil
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unknown option: %s", fs.Arg(0))
	}
	if opts.port < 1 || opts.port > 65535 {
		return nil, fmt.Errorf("invalid port number: %d", opts.port)
	}
	return opts, nil
}

// wantsHelp ищет -h или --help до терминатора "--".
func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "-h", "--help":
			return true
		}
	}
	return false
}

// apply переносит явно заданные флаги в конфигурацию.
// Флаги, не указанные в командной строке, не меняют значения из файла.
func (o *cliOptions) apply(cfg *config.Config) {
	if o.flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if o.flags.Changed("users") {
		cfg.Users.File = o.users
	}
	if o.flags.Changed("log") {
		cfg.Log.Journal = o.journal
	}
}

// printUsage печатает справку.
func printUsage(w io.Writer) {
	fs := newFlagSet(&cliOptions{})
	fmt.Fprintln(w, "Usage: scale [OPTIONS]")
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
}
