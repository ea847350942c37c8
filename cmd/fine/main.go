package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/api"
	"github.com/pbaille/fine/internal/config"
	"github.com/pbaille/fine/internal/logger"
	"github.com/pbaille/fine/internal/service"
	"github.com/pbaille/fine/internal/store"
)

var (
	version    = "dev"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fine",
		Short:         "Events calendar, community board and asset allocation backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (defaults to $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(communityCmd())
	rootCmd.AddCommand(allocationCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles what every command needs
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	backend store.Backend
	svc     *service.Service
}

func (a *app) Close() error { return a.backend.Close() }

// getApp loads config and opens the store. One-shot commands only log
// warnings so that their stdout stays readable.
func getApp(quiet bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if quiet && logCfg.Level != "debug" {
		logCfg.Level = "warn"
	}
	log := logger.New(logCfg)

	backend, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{cfg: cfg, log: log, backend: backend, svc: service.New(backend, log)}, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := api.OptionsFromConfig(a.cfg, version)
			if addr != "" {
				opts.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return api.New(a.svc, opts, a.log).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides server.host/port)")
	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage calendar events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all events",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			events := a.svc.ListEvents(cmd.Context())
			if len(events) == 0 {
				fmt.Println("No events yet. Use 'fine events add' to create one.")
				return nil
			}
			for _, e := range events {
				fmt.Printf("%s  %s  %s\n", shortID(e.ID), e.Date, e.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [date] [title]",
		Short: "Add an event on a YYYY-MM-DD date",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			event, err := a.svc.CreateEvent(cmd.Context(), service.CreateEventInput{
				Date:  args[0],
				Title: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added event: %s\n", shortID(event.ID))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Print a month grid with event counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month := time.Now().Year(), time.Now().Month()
			if len(args) == 1 {
				var err error
				if year, month, err = aggregate.ParseMonth(args[0]); err != nil {
					return err
				}
			}

			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			printMonth(a.svc.Calendar(cmd.Context(), year, month))
			return nil
		},
	})

	return cmd
}

func printMonth(view aggregate.MonthView) {
	fmt.Printf("%s %d\n", time.Month(view.Month), view.Year)
	fmt.Println(" Su  Mo  Tu  We  Th  Fr  Sa")

	var listed []aggregate.Cell
	for _, week := range view.Weeks {
		for _, c := range week {
			switch {
			case c.Placeholder():
				fmt.Print("    ")
			case len(c.Events) > 0:
				fmt.Printf("%3d*", c.Day)
				listed = append(listed, c)
			default:
				fmt.Printf("%3d ", c.Day)
			}
		}
		fmt.Println()
	}

	for _, c := range listed {
		for _, e := range c.Events {
			fmt.Printf("  %s  %s\n", c.Date, e.Title)
		}
	}
}

func communityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "community",
		Short: "Read and write community posts",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List post summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			posts := a.svc.ListPostSummaries(cmd.Context(), category)
			if len(posts) == 0 {
				fmt.Println("No posts yet. Use 'fine community post' to create one.")
				return nil
			}
			for _, p := range posts {
				fmt.Printf("%s  [%s] %s (%d) - %s\n", shortID(p.ID), p.Category, truncate(p.Title, 50), p.Replies, p.Author)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&category, "category", "c", "", "notice, free or column")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.svc.ResolvePostID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			post, err := a.svc.GetPost(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("ID:       %s\n", post.ID)
			fmt.Printf("Category: %s\n", post.Category)
			fmt.Printf("Title:    %s\n", post.Title)
			fmt.Printf("Author:   %s\n", post.Author)
			fmt.Printf("Created:  %s\n", post.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Content:\n%s\n", post.Content)

			if len(post.Comments) > 0 {
				fmt.Printf("\nComments:\n")
				for _, c := range post.Comments {
					fmt.Printf("  - %s: %s\n", c.Author, truncate(c.Content, 70))
				}
			}
			return nil
		},
	})

	var author, postCategory, title string
	post := &cobra.Command{
		Use:   "post [content]",
		Short: "Create a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.svc.CreatePost(cmd.Context(), service.CreatePostInput{
				Category: postCategory,
				Title:    title,
				Author:   author,
				Content:  strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added post: %s\n", p.ID)
			return nil
		},
	}
	post.Flags().StringVarP(&title, "title", "t", "", "post title")
	post.Flags().StringVar(&author, "author", "", "author name (anonymous when empty)")
	post.Flags().StringVarP(&postCategory, "category", "c", "", "notice, free or column (default free)")
	cmd.AddCommand(post)

	var commentAuthor string
	comment := &cobra.Command{
		Use:   "comment [post-id] [content]",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.svc.ResolvePostID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			c, err := a.svc.AddComment(cmd.Context(), id, service.CreateCommentInput{
				Author:  commentAuthor,
				Content: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added comment: %s\n", shortID(c.ID))
			return nil
		},
	}
	comment.Flags().StringVar(&commentAuthor, "author", "", "author name (anonymous when empty)")
	cmd.AddCommand(comment)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats [author]",
		Short: "Count posts and comments by author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.svc.ProfileStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d posts, %d comments\n", stats.Author, stats.Posts, stats.Comments)
			return nil
		},
	})

	return cmd
}

func allocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocation",
		Short: "Inspect and adjust asset allocation weights",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show category totals and item weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			values := a.svc.AllocationValues(cmd.Context())
			catalog := a.svc.Catalog()
			for _, t := range a.svc.Allocation(cmd.Context()) {
				fmt.Printf("%-6s %3d%%  %s (%d/%d)\n", t.Category, t.Percentage, bar(t.Percentage), t.Current, t.Max)
				for _, it := range catalog.ItemsIn(t.Category) {
					fmt.Printf("  %s  %-24s %2d\n", it.ID, it.Name, aggregate.ValueOf(values, it.ID))
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [item-id=value]...",
		Short: "Set one or more item weights (0-10)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]int, len(args))
			for _, arg := range args {
				id, raw, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected item-id=value, got %q", arg)
				}
				v, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("value for %s: %w", id, err)
				}
				values[id] = v
			}

			a, err := getApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			totals, err := a.svc.SetAllocationValues(cmd.Context(), values)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(values))
			for id := range values {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			fmt.Printf("Updated %s\n", strings.Join(ids, ", "))
			for _, t := range totals {
				fmt.Printf("%-6s %3d%%\n", t.Category, t.Percentage)
			}
			return nil
		},
	})

	return cmd
}
