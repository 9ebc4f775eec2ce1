package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/blogs"
	"github.com/eringen/blogs/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "reindex":
		err = runReindex(os.Args[2:])
	case "new":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: blogs new <project-name>")
			os.Exit(1)
		}
		err = runNew(os.Args[2])
	case "version":
		fmt.Printf("blogs %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional TOML file named by -config, then applies
// BLOGS_* environment overrides.
func loadConfig(name string, args []string) (blogs.SiteConfig, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "blogs.toml", "path to the TOML config file")
	if err := fs.Parse(args); err != nil {
		return blogs.SiteConfig{}, err
	}

	var cfg blogs.SiteConfig
	if _, err := os.Stat(*path); err == nil {
		cfg, err = blogs.LoadConfigFile(*path, cfg)
		if err != nil {
			return blogs.SiteConfig{}, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return blogs.SiteConfig{}, err
	}
	return blogs.ApplyEnv(cfg)
}

func runServe(args []string) error {
	cfg, err := loadConfig("serve", args)
	if err != nil {
		return err
	}
	app := blogs.New(cfg, views.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		app.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func runReindex(args []string) error {
	cfg, err := loadConfig("reindex", args)
	if err != nil {
		return err
	}
	app := blogs.New(cfg, views.Default())
	defer app.Close()

	ctx := context.Background()
	if err := app.Setup(ctx); err != nil {
		return err
	}
	n, err := app.Reindex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d pages\n", n)
	return nil
}

func printUsage() {
	fmt.Println(`blogs - A page-tree blog engine built with Go, Echo, and templ

Usage:
  blogs <command> [arguments]

Commands:
  serve [-config blogs.toml]    Run the web server
  reindex [-config blogs.toml]  Rebuild the search index from live pages
  new <name>                    Create a new blogs site
  version                       Print the blogs version
  help                          Show this help message

Examples:
  blogs new myblog
  blogs new github.com/user/myblog
  BLOGS_ADMIN_PASSWORD=secret blogs serve -config blogs.toml`)
}
