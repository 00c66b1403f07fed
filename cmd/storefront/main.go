// Command storefront is the terminal client of the storefront backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/internal/logging"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	c := config.New()
	if len(os.Args) == 1 {
		displayAppname(c.GetAppName())
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, c, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c config.Config, args []string, out io.Writer) error {
	logger := logging.New(c.GetLogLevel(), c.IsDev())

	a, err := newApp(ctx, c, logger, out)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.root().execute(ctx, out, "", args)
	logger.Debug().Int("requests", a.requestCount()).Msg("done")
	return err
}

func printError(w io.Writer, err error) {
	var e *apierr.Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %s\n", apierr.Message(err, e.Error()))
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, e.Fields[name])
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
