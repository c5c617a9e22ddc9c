// Command iconctl resolves bookmark icons from the command line, sharing the
// service's configuration and cache.
//
//	iconctl [-config path] resolve <url>...
//	iconctl [-config path] warm [bookmarks.json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bookie/internal/bookmarks"
	"bookie/internal/config"
	"bookie/internal/httpapi"
	"bookie/internal/logging"
)

func main() {
	configPath := flag.String("config", "./configs/bookie.yaml", "path to config file")
	menuOnly := flag.Bool("menu", false, "warm: only walk the Bookmarks Menu/Toolbar folder")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: iconctl [flags] resolve <url>... | warm [bookmarks.json]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.NewWithWriter(os.Stderr, cfg.Log.Level)

	ld, store, err := httpapi.NewBuilder(cfg, logger).BuildLoader()
	if err != nil {
		log.Fatalf("build loader: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "resolve":
		if len(args) == 0 {
			flag.Usage()
			os.Exit(2)
		}
		for _, raw := range args {
			out := httpapi.IconResponse{URL: raw, Glyph: bookmarks.Glyph(raw)}
			if iconURL, ok := ld.Load(ctx, raw); ok {
				out.IconURL = iconURL
			}
			_ = enc.Encode(out)
		}

	case "warm":
		path := cfg.Bookmarks.Path
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			log.Fatal("warm: no bookmarks file given and bookmarks.path is not configured")
		}
		nodes, err := bookmarks.LoadFile(path)
		if err != nil {
			log.Fatalf("warm: %v", err)
		}
		if *menuOnly {
			menu := bookmarks.FindMenu(nodes)
			if menu == nil {
				log.Fatal("warm: no Bookmarks Menu or Bookmarks Toolbar folder found")
			}
			nodes = []*bookmarks.Node{menu}
		}

		res, err := bookmarks.Warm(ctx, nodes, ld, cfg.Bookmarks.Concurrency)
		_ = enc.Encode(res)
		if err != nil {
			log.Fatalf("warm: %v", err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}
