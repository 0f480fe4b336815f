// Condatool is a small operator tool for poking at repodata.json files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/quay/condakit"
)

type commonConfig struct {
	Channel condakit.Channel
}

type subcmd func(context.Context, *commonConfig, []string) error

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()
	ctx, done := context.WithCancel(context.Background())
	defer done()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		<-ch
		done()
	}()

	fs := flag.NewFlagSet("main", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nSubcommands\n\n")
		fmt.Fprintln(out, "names")
		fmt.Fprintln(out, "\tprint the package names in a repodata file")
		fmt.Fprintln(out, "closure")
		fmt.Fprintln(out, "\tresolve the transitive closure of packages across repodata files")
		fmt.Fprintln(out)
	}
	channelName := fs.String("channel", "conda-forge", "channel name (record URLs and channel names are derived from -base)")
	baseURL := fs.String("base", "https://conda.anaconda.org/conda-forge", "channel base URL")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	u, err := url.Parse(*baseURL)
	if err != nil {
		log.Fatal(err)
	}
	cfg := commonConfig{
		Channel: condakit.Channel{Name: *channelName, BaseURL: u},
	}

	var cmd subcmd
	switch n := fs.Arg(0); n {
	case "names":
		cmd = Names
	case "closure":
		cmd = Closure
	case "":
		fs.Usage()
		return
	default:
		log.Printf("unknown subcommand %q", n)
		exit = 1
		return
	}
	if err := cmd(ctx, &cfg, fs.Args()[1:]); err != nil {
		log.Print(err)
		exit = 1
	}
}
