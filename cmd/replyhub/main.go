package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"replyhub/internal/cache"
	"replyhub/internal/config"
	"replyhub/internal/events"
	"replyhub/internal/gateway"
	"replyhub/internal/identity"
	"replyhub/internal/thread"

	"go.uber.org/zap"
)

func main() {
	postID := flag.String("post", "", "id of the post whose thread to open")
	flag.Parse()

	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "usage: replyhub -post <post-id>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded", zap.String("api", cfg.API.BaseURL))

	actor, err := identity.ActorFromToken(cfg.API.Token)
	if err != nil {
		logger.Fatal("Failed to derive identity from API token", zap.Error(err))
	}
	logger.Info("Acting as", zap.String("user_id", actor.ID), zap.String("name", actor.Name()))

	gw, err := gateway.NewClient(&gateway.Config{
		BaseURL:            cfg.API.BaseURL,
		Token:              cfg.API.Token,
		Timeout:            cfg.API.Timeout,
		MaxConnectAttempts: uint64(cfg.API.MaxConnectAttempts),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build gateway", zap.Error(err))
	}

	ctx := context.Background()
	if err := gw.WaitForAPI(ctx); err != nil {
		logger.Fatal("API is not reachable", zap.Error(err))
	}

	threadCache, err := cache.New(&cache.Config{
		Provider:      cfg.Cache.Provider,
		TTL:           cfg.Cache.TTL,
		MaxKeys:       cfg.Cache.MaxKeys,
		RedisURL:      cfg.Cache.RedisURL,
		RedisDB:       cfg.Cache.RedisDB,
		RedisPassword: cfg.Cache.RedisPassword,
		PoolSize:      cfg.Cache.PoolSize,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer threadCache.Close()

	bus := events.NewInMemoryEventBus(logger)
	defer bus.Close()

	loader := thread.NewLoader(gw, threadCache, cfg.Cache.TTL, logger)
	if err := loader.SubscribeInvalidation(bus); err != nil {
		logger.Fatal("Failed to wire cache invalidation", zap.Error(err))
	}

	store := thread.NewStore(*postID)
	comments, err := loader.LoadThread(ctx, *postID, false)
	if err != nil {
		logger.Fatal("Failed to load thread", zap.Error(err))
	}
	store.Hydrate(comments)

	coordinator := thread.NewCoordinator(store, gw, thread.NewDisclosure(), bus, actor, logger)

	runShell(ctx, coordinator, loader, logger)
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

const shellHelp = `commands:
  show                               render the thread
  comment <text>                     add a comment
  reply <comment> <text>             reply to a comment
  replyto <comment> <reply> <text>   reply to a reply (flattened, @tagged)
  edit <comment> <text>              edit a comment
  editreply <comment> <reply> <text> edit a reply
  delete <comment>                   delete a comment
  delreply <comment> <reply>         delete a reply
  like <comment>                     toggle like on a comment
  likereply <comment> <reply>        toggle like on a reply
  view <comment>                     show first replies
  more <comment>                     show more replies
  hide <comment>                     collapse replies
  reload                             refetch the thread from the server
  quit`

func runShell(ctx context.Context, c *thread.Coordinator, loader *thread.Loader, logger *zap.Logger) {
	fmt.Println(shellHelp)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := dispatch(ctx, c, loader, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, c *thread.Coordinator, loader *thread.Loader, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	rest := func(n int) string { return strings.Join(args[n:], " ") }

	switch cmd {
	case "show":
		render(c)
		return nil
	case "comment":
		if len(args) < 1 {
			return fmt.Errorf("usage: comment <text>")
		}
		_, err := c.AddComment(ctx, thread.AddCommentRequest{Content: rest(0)})
		return err
	case "reply":
		if len(args) < 2 {
			return fmt.Errorf("usage: reply <comment> <text>")
		}
		_, err := c.AddReply(ctx, thread.AddReplyRequest{CommentID: args[0], Content: rest(1)})
		return err
	case "replyto":
		if len(args) < 3 {
			return fmt.Errorf("usage: replyto <comment> <reply> <text>")
		}
		replyID := args[1]
		_, err := c.AddReply(ctx, thread.AddReplyRequest{
			CommentID: args[0],
			ReplyID:   &replyID,
			Content:   rest(2),
		})
		return err
	case "edit":
		if len(args) < 2 {
			return fmt.Errorf("usage: edit <comment> <text>")
		}
		return c.EditComment(ctx, thread.EditRequest{CommentID: args[0], Content: rest(1)})
	case "editreply":
		if len(args) < 3 {
			return fmt.Errorf("usage: editreply <comment> <reply> <text>")
		}
		replyID := args[1]
		return c.EditComment(ctx, thread.EditRequest{CommentID: args[0], ReplyID: &replyID, Content: rest(2)})
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <comment>")
		}
		return c.DeleteComment(ctx, args[0])
	case "delreply":
		if len(args) != 2 {
			return fmt.Errorf("usage: delreply <comment> <reply>")
		}
		return c.DeleteReply(ctx, args[0], args[1])
	case "like":
		if len(args) != 1 {
			return fmt.Errorf("usage: like <comment>")
		}
		_, err := c.ToggleCommentLike(ctx, args[0])
		return err
	case "likereply":
		if len(args) != 2 {
			return fmt.Errorf("usage: likereply <comment> <reply>")
		}
		_, err := c.ToggleReplyLike(ctx, args[0], args[1])
		return err
	case "view":
		if len(args) != 1 {
			return fmt.Errorf("usage: view <comment>")
		}
		c.Disclosure().ViewReplies(args[0], c.Store().ReplyCount(args[0]))
		render(c)
		return nil
	case "more":
		if len(args) != 1 {
			return fmt.Errorf("usage: more <comment>")
		}
		c.Disclosure().ShowMore(args[0], c.Store().ReplyCount(args[0]))
		render(c)
		return nil
	case "hide":
		if len(args) != 1 {
			return fmt.Errorf("usage: hide <comment>")
		}
		c.Disclosure().Hide(args[0])
		render(c)
		return nil
	case "reload":
		comments, err := loader.LoadThread(ctx, c.Store().PostID(), true)
		if err != nil {
			return err
		}
		c.Store().Hydrate(comments)
		render(c)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func render(c *thread.Coordinator) {
	comments := c.Store().Comments()
	if len(comments) == 0 {
		fmt.Println("(no comments)")
		return
	}
	for _, cm := range comments {
		fmt.Printf("[%s] %s%s - %d likes\n", cm.ID, marker(cm.Pending), cm.Author.Name(), cm.Likes.Count())
		fmt.Printf("    %s\n", cm.Content)

		total := cm.ReplyCount()
		if total == 0 {
			continue
		}
		visible := c.Disclosure().VisibleCount(cm.ID, total)
		fmt.Printf("    %d replies (%d shown)\n", total, visible)
		for i, r := range cm.Replies {
			if i >= visible {
				break
			}
			fmt.Printf("      [%s] %s%s - %d likes: %s\n",
				r.ID, marker(r.Pending), r.Author.Name(), r.Likes.Count(), r.DisplayContent())
		}
	}
}

func marker(pending bool) string {
	if pending {
		return "(pending) "
	}
	return ""
}
