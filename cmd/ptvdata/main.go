// Command ptvdata 运维入口：建表、清理跟踪记录、查看通知数量与实体历史、执行发布状态变更
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"ptvdata/config"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string, out io.Writer) error
}

var commands = map[string]command{
	"migrate":            {"create tables", runMigrate},
	"sweep":              {"delete tracking records older than the retention window", runSweep},
	"numbers":            {"print notification counts, optionally publishing the digest", runNumbers},
	"notifications":      {"list one page of a notification kind", runNotifications},
	"entity-history":     {"list one page of an entity's version history", runEntityHistory},
	"connection-history": {"list one page of an entity's connection history", runConnectionHistory},
	"transition":         {"publish, withdraw, delete, remove or restore an entity", runTransition},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "ptvdata:", err)
		stop()
		os.Exit(1)
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: ptvdata [-config file] <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ptvdata", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("PTVDATA_CONFIG"), "YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(stderr, fs)
		return fmt.Errorf("missing command")
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(stderr, fs)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()
	a.serveMetrics(ctx)

	return cmd.run(ctx, a, fs.Args()[1:], stdout)
}
