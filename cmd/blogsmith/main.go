package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogsmith/internal/config"
	"git.home.luguber.info/inful/blogsmith/internal/daemon"
	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
	"git.home.luguber.info/inful/blogsmith/internal/history"
	"git.home.luguber.info/inful/blogsmith/internal/linkcheck"
	"git.home.luguber.info/inful/blogsmith/internal/site"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"blogsmith.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override the output directory"`
		Drafts bool   `help:"Include drafts in the build"`
		Future bool   `help:"Include posts dated in the future"`
		Clean  bool   `help:"Stage the output tree and swap it in atomically"`
	} `cmd:"" help:"Build the site once and write the output tree"`

	Serve struct {
		Port    int  `short:"p" help:"Override the listen port"`
		Drafts  bool `help:"Include drafts while serving"`
		History bool `help:"Record build history to .blogsmith/history.db" default:"true" negatable:""`
	} `cmd:"" help:"Watch, rebuild and serve the site with live reload"`

	Init struct {
		Dir   string `arg:"" optional:"" help:"Directory to scaffold into" default:"."`
		Force bool   `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a new site with config, content and theme"`

	New struct {
		Title string `arg:"" help:"Post title"`
		Draft bool   `help:"Create the post under the drafts directory"`
	} `cmd:"" help:"Create a new post file with a frontmatter stub"`

	Check struct {
		Drafts bool `help:"Include drafts in the check"`
	} `cmd:"" help:"Build in memory and verify internal links"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "build":
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load configuration", err)
		}
		if CLI.Build.Output != "" {
			cfg.Output.Directory = CLI.Build.Output
		}
		if CLI.Build.Clean {
			cfg.Output.Clean = true
		}
		if err := runBuild(cfg); err != nil {
			fatal("Build failed", err)
		}
	case "serve":
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load configuration", err)
		}
		if CLI.Serve.Port != 0 {
			cfg.Serve.Port = CLI.Serve.Port
		}
		if err := runServe(cfg); err != nil {
			fatal("Serve failed", err)
		}
	case "init", "init <dir>":
		if err := runInit(CLI.Init.Dir, CLI.Init.Force); err != nil {
			fatal("Init failed", err)
		}
	case "new <title>":
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load configuration", err)
		}
		if err := runNew(cfg, CLI.New.Title, CLI.New.Draft); err != nil {
			fatal("New post failed", err)
		}
	case "check":
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load configuration", err)
		}
		if err := runCheck(cfg); err != nil {
			fatal("Check failed", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(CLI.Config)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err, "category", berrors.CategoryOf(err))
	os.Exit(1)
}

func runBuild(cfg *config.Config) error {
	started := time.Now()
	builder, err := site.NewBuilder(cfg)
	if err != nil {
		return err
	}

	snap, report, err := builder.Build(context.Background(), "cli", site.Options{
		IncludeDrafts: CLI.Build.Drafts,
		IncludeFuture: CLI.Build.Future,
	})
	if err != nil {
		return err
	}

	if err := site.WriteTree(snap, cfg.Output.Directory, cfg.Output.Clean); err != nil {
		return err
	}

	slog.Info("Site built",
		"output", cfg.Output.Directory,
		"pages", report.Pages,
		"issues", len(report.Issues),
		"duration", time.Since(started).Round(time.Millisecond))

	// Skip-and-report: the good pages were written above, but any bad
	// document still fails the build for automation.
	if report.HasIssues() {
		for _, issue := range report.Issues {
			slog.Error("Document failed", "path", issue.Path, "error", issue.Message)
		}
		return berrors.Content("", fmt.Sprintf("%d document(s) failed to build", len(report.Issues)))
	}
	return nil
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *history.Store
	if CLI.Serve.History {
		dir := ".blogsmith"
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("Build history disabled", "error", err)
		} else {
			var err error
			store, err = history.Open(filepath.Join(dir, "history.db"))
			if err != nil {
				slog.Warn("Build history disabled", "error", err)
				store = nil
			}
		}
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history store", "error", err)
			}
		}()
	}

	d := daemon.New(cfg, site.Options{IncludeDrafts: CLI.Serve.Drafts}, store)
	return d.Run(ctx)
}

func runInit(dir string, force bool) error {
	slog.Info("Scaffolding site", "dir", dir, "force", force)
	if err := site.Scaffold(dir, force, time.Now()); err != nil {
		return err
	}
	slog.Info("Site scaffolded", "dir", dir)
	return nil
}

func runNew(cfg *config.Config, title string, draft bool) error {
	slug := site.Slugify(title)
	if slug == "" {
		return berrors.Content("", "title produces an empty slug")
	}

	var path string
	if draft {
		path = filepath.Join(cfg.Content.DraftsDir, slug+".md")
	} else {
		path = filepath.Join(cfg.Content.Dir, time.Now().Format("2006-01-02")+"-"+slug+".md")
	}
	if _, err := os.Stat(path); err == nil {
		return berrors.Content(path, "post already exists")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return berrors.EnvironmentWrap(err, "create content directory")
	}

	stub := fmt.Sprintf("---\nlayout: post\ntitle: %q\n---\n\n", title)
	if err := os.WriteFile(path, []byte(stub), 0o644); err != nil {
		return berrors.EnvironmentWrap(err, "write post file")
	}
	slog.Info("Post created", "path", path)
	return nil
}

func runCheck(cfg *config.Config) error {
	builder, err := site.NewBuilder(cfg)
	if err != nil {
		return err
	}

	snap, report, err := builder.Build(context.Background(), "cli", site.Options{
		IncludeDrafts: CLI.Check.Drafts,
	})
	if err != nil {
		return err
	}
	for _, issue := range report.Issues {
		slog.Error("Document failed", "path", issue.Path, "error", issue.Message)
	}

	problems := linkcheck.Check(snap)
	for _, p := range problems {
		slog.Error("Broken internal link", "page", p.Page, "target", p.Target)
	}

	if report.HasIssues() || len(problems) > 0 {
		return berrors.Content("", fmt.Sprintf("%d document issue(s), %d broken link(s)",
			len(report.Issues), len(problems)))
	}
	slog.Info("Check passed", "pages", report.Pages)
	return nil
}
