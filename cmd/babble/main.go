// Command babble is a terminal client for the forum backend: it signs in,
// browses and searches the feed, creates posts (optionally with an image)
// and toggles likes and favorites. It can also host the bundled dev backend
// for local use.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"Babble/internal/config"
	"Babble/internal/core/compose"
	"Babble/internal/core/feed"
	"Babble/internal/devserver"
	"Babble/internal/forum"
	"Babble/internal/session"
)

func main() {
	app := &cli.App{
		Name:  "babble",
		Usage: "forum feed client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config file",
				Value: defaultConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			feedCommand(),
			postCommand(),
			likeCommand(),
			favoriteCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".babble", "config.toml")
}

// env bundles everything a command needs: config, logger, session, the API
// client and the two core services.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	sess    *session.FileStore
	client  *forum.Client
	feed    *feed.Service
	compose *compose.Service
}

func setup(c *cli.Context) (*env, error) {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	sess := session.NewFileStore(cfg.Backend.SessionFile)
	client := forum.NewClient(cfg.Backend.BaseURL, logger)

	// The backend rejecting the token means the stored session is dead:
	// drop it so the next command starts signed out.
	onAuthExpired := func() {
		logger.Warn("session expired, signing out")
		if err := sess.Clear(); err != nil {
			logger.Error("failed to clear session", "error", err)
		}
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		sess:    sess,
		client:  client,
		feed:    feed.NewService(client, sess, logger, onAuthExpired),
		compose: compose.NewService(client, sess, logger, onAuthExpired),
	}, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "username or email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			result, err := e.client.Login(c.Context, c.String("user"), c.String("password"))
			if err != nil {
				return err
			}
			if err := e.sess.Set(result.UserID, result.Username, result.Token); err != nil {
				return err
			}
			fmt.Printf("signed in as %s (user %d)\n", result.Username, result.UserID)
			return nil
		},
	}
}

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "list posts, merged with your likes and favorites",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search in title and content"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			result, err := e.feed.Sync(c.Context, c.String("query"))
			if err != nil {
				return err
			}
			if result.Degraded {
				fmt.Println("(interaction state unavailable, showing posts only)")
			}
			printFeed(result)
			return nil
		},
	}
}

func printFeed(result *feed.SyncResult) {
	if len(result.Posts) == 0 {
		fmt.Println("no posts found")
		return
	}
	for _, p := range result.Posts {
		flags := result.Flags[p.ID]
		marks := ""
		if flags.Liked {
			marks += " ♥"
		}
		if flags.Favorited {
			marks += " ★"
		}
		fmt.Printf("[%d] %s — %s%s\n", p.ID, p.Title, p.Username, marks)
		fmt.Printf("    %s\n", p.Content)
		if p.ImageURL != "" {
			fmt.Printf("    image: %s\n", p.ImageURL)
		}
		fmt.Printf("    %d likes · %d comments · %d favorites\n",
			p.LikesCount, p.CommentsCount, p.FavoritesCount)
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "create a post, optionally with an image",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringFlag{Name: "content", Required: true},
			&cli.StringFlag{Name: "image", Usage: "path to an image file to attach"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			var image *compose.Image
			if path := c.String("image"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				image = &compose.Image{Data: data, Filename: filepath.Base(path)}
			}

			draft := compose.Draft{Title: c.String("title"), Content: c.String("content")}
			if _, err := e.compose.CreatePost(c.Context, draft, image); err != nil {
				// The draft came from flags; the user re-runs the same
				// command to resubmit.
				return err
			}

			// Re-sync for the authoritative post rather than trusting the
			// locally known record.
			result, err := e.feed.Sync(c.Context, "")
			if err != nil {
				return err
			}
			fmt.Println("post created")
			printFeed(result)
			return nil
		},
	}
}

func likeCommand() *cli.Command {
	return toggleCommand("like", "toggle a like on a post", func(e *env, c *cli.Context, postID int64) error {
		return e.feed.ToggleLike(c.Context, postID)
	})
}

func favoriteCommand() *cli.Command {
	return toggleCommand("favorite", "toggle a favorite on a post", func(e *env, c *cli.Context, postID int64) error {
		return e.feed.ToggleFavorite(c.Context, postID)
	})
}

func toggleCommand(name, usage string, toggle func(*env, *cli.Context, int64) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<post-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: babble %s <post-id>", name)
			}
			postID, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", c.Args().First())
			}

			e, err := setup(c)
			if err != nil {
				return err
			}

			// Populate the snapshot first; toggles patch it in place.
			if _, err := e.feed.Sync(c.Context, ""); err != nil {
				return err
			}
			if err := toggle(e, c, postID); err != nil {
				return err
			}

			if post, ok := e.feed.Store().Get(postID); ok {
				flags := e.feed.Store().Flags(postID)
				fmt.Printf("[%d] %s: liked=%v (%d likes), favorited=%v (%d favorites)\n",
					post.ID, post.Title, flags.Liked, post.LikesCount, flags.Favorited, post.FavoritesCount)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the bundled dev backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			addr := e.cfg.Serve.Addr
			if c.String("addr") != "" {
				addr = c.String("addr")
			}

			srv := devserver.New(e.cfg.Serve.UploadDir, []byte(e.cfg.Serve.Secret), e.logger)
			if _, err := srv.Seed("dev", "dev@localhost", "devpass"); err != nil {
				return fmt.Errorf("seed dev user: %w", err)
			}
			e.logger.Info("dev backend listening", "addr", addr, "user", "dev", "password", "devpass")
			return http.ListenAndServe(addr, srv.Router())
		},
	}
}
