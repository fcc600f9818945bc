// Command gia is a terminal client for the GIA Fashion backend: session
// management, the trend feed, admin subscriber tools and marketing content.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"giafashion/internal/api"
	"giafashion/internal/blog"
	"giafashion/internal/config"
	"giafashion/internal/content"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/session"
	"giafashion/internal/store"
	"giafashion/internal/subscribe"
	"giafashion/internal/users"
)

const usage = `Usage: gia <command> [flags]

Auth:
  login     -email <e> -password <p>
  register  -email <e> -password <p> [-username <u>]
  logout
  whoami
  refresh

Blog:
  blogs     [-filter all|draft|published]
  like      -id <post>
  unlike    -id <post>
  approve   -id <post>
  remove    -id <post> [-yes]
  comment   -id <post> -text <t>
  comments  -id <post>
  remove-comment -id <post> -comment <c> [-yes]

Admin:
  users
  delete-user -id <user> [-yes]
  export      [-out <file.xlsx>]

Other:
  subscribe -email <e> -first <name> [-last <name>] [-phone <p>]
  content   -section <hero|about|faq|footer>
`

// app bundles the wired services for command handlers.
type app struct {
	cfg     *config.Config
	client  *api.Client
	session *session.Store
	blog    *blog.Service
	users   *users.Service
	sub     *subscribe.Service
	content *content.Cache
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal(err)
	}

	logger := observability.NewLogger(cfg.Env)
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "gia-cli",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		fatal(err)
	}
	defer shutdown(context.Background())

	kv, err := openStore(cfg)
	if err != nil {
		fatal(err)
	}

	client := api.New(cfg.APIBaseURL,
		api.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}),
		api.WithLogger(logger),
	)
	sess := session.New(client, kv, logger)

	a := &app{
		cfg:     cfg,
		client:  client,
		session: sess,
		blog:    blog.NewService(client, sess, logger),
		users:   users.NewService(client, logger),
		sub:     subscribe.NewService(client),
		content: content.NewCache(client, kv, time.Duration(cfg.ContentTTLSeconds)*time.Second, logger),
	}
	a.blog.Confirm = promptConfirm
	a.users.Confirm = promptConfirm

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fatal(err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		a.session.Logout()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.whoami()
	case "refresh":
		if err := a.session.Refresh(ctx); err != nil {
			return err
		}
		fmt.Println("Access token refreshed.")
		return nil
	case "blogs":
		return a.listBlogs(ctx, args)
	case "like":
		return a.likeAction(ctx, args, a.blog.Like, "Liked")
	case "unlike":
		return a.likeAction(ctx, args, a.blog.Unlike, "Unliked")
	case "approve":
		return a.approve(ctx, args)
	case "remove":
		return a.remove(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "comments":
		return a.comments(ctx, args)
	case "remove-comment":
		return a.removeComment(ctx, args)
	case "users":
		return a.listUsers(ctx)
	case "delete-user":
		return a.deleteUser(ctx, args)
	case "export":
		return a.export(ctx, args)
	case "subscribe":
		return a.subscribeCmd(ctx, args)
	case "content":
		return a.contentCmd(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	u := a.session.Current()
	fmt.Printf("Logged in as %s (%s)\n", u.Email, u.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	username := fs.String("username", "", "display name (optional)")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return errors.New("register requires -email and -password")
	}

	if err := a.session.Register(ctx, *email, *password, *username); err != nil {
		return err
	}
	u := a.session.Current()
	fmt.Printf("Account created, logged in as %s\n", u.Email)
	return nil
}

func (a *app) whoami() error {
	u := a.session.Current()
	if u == nil || !a.session.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("ID: %d\nEmail: %s\nUsername: %s\nRole: %s\n", u.ID, u.Email, u.Username, u.Role)
	if session.TokenExpiresWithin(a.session.AccessToken(), time.Minute) {
		fmt.Println("Access token expired or about to; run 'gia refresh'.")
	}
	return nil
}

func (a *app) listBlogs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("blogs", flag.ExitOnError)
	filter := fs.String("filter", "all", "all, draft or published")
	fs.Parse(args)

	if err := a.blog.Sync(ctx); err != nil {
		return err
	}
	posts := a.blog.Posts(blog.Filter(*filter))
	if len(posts) == 0 {
		fmt.Println("No posts.")
		return nil
	}
	for i := range posts {
		p := &posts[i]
		liked := " "
		if p.Liked {
			liked = "*"
		}
		fmt.Printf("[%d] %s%s (%s) likes=%d comments=%d\n", p.ID, liked, p.Title, p.Status, p.LikesCount, p.CommentsCount)
		if p.AIInsight != "" {
			fmt.Printf("     %s\n", p.AIInsight)
		}
	}
	return nil
}

func (a *app) likeAction(ctx context.Context, args []string, action func(context.Context, uint) error, verb string) error {
	id, err := parseIDFlag(args)
	if err != nil {
		return err
	}
	// the action gates on cached Liked state, so the list must be loaded first
	if err := a.blog.Sync(ctx); err != nil {
		return err
	}
	if err := action(ctx, id); err != nil {
		return err
	}
	if p, ok := a.blog.Post(id); ok {
		fmt.Printf("%s post %d (likes=%d)\n", verb, id, p.LikesCount)
	}
	return nil
}

func (a *app) approve(ctx context.Context, args []string) error {
	id, err := parseIDFlag(args)
	if err != nil {
		return err
	}
	if err := a.blog.Sync(ctx); err != nil {
		return err
	}
	if err := a.blog.Approve(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Post %d published.\n", id)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	id := fs.Uint("id", 0, "post id")
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	fs.Parse(args)
	if *id == 0 {
		return errors.New("-id is required")
	}
	if *yes {
		a.blog.Confirm = func(string) bool { return true }
	}

	if err := a.blog.Sync(ctx); err != nil {
		return err
	}
	if err := a.blog.Remove(ctx, uint(*id)); err != nil {
		return err
	}
	fmt.Printf("Post %d deleted.\n", *id)
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	id := fs.Uint("id", 0, "post id")
	text := fs.String("text", "", "comment text")
	fs.Parse(args)
	if *id == 0 {
		return errors.New("-id is required")
	}

	if err := a.blog.Sync(ctx); err != nil {
		return err
	}
	if err := a.blog.Comment(ctx, uint(*id), *text); err != nil {
		return err
	}
	fmt.Printf("Comment posted on %d.\n", *id)
	return nil
}

func (a *app) comments(ctx context.Context, args []string) error {
	id, err := parseIDFlag(args)
	if err != nil {
		return err
	}
	list, err := a.blog.Comments(ctx, id)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No comments.")
		return nil
	}
	for i := range list {
		c := &list[i]
		fmt.Printf("[%d] %s: %s\n", c.ID, c.AuthorName, c.Text)
	}
	return nil
}

func (a *app) removeComment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove-comment", flag.ExitOnError)
	id := fs.Uint("id", 0, "post id")
	comment := fs.Uint("comment", 0, "comment id")
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	fs.Parse(args)
	if *id == 0 || *comment == 0 {
		return errors.New("-id and -comment are required")
	}
	if *yes {
		a.blog.Confirm = func(string) bool { return true }
	}

	if err := a.blog.Sync(ctx); err != nil {
		return err
	}
	if err := a.blog.RemoveComment(ctx, uint(*id), uint(*comment)); err != nil {
		return err
	}
	fmt.Printf("Comment %d deleted.\n", *comment)
	return nil
}

func (a *app) listUsers(ctx context.Context) error {
	list, err := a.users.List(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		u := &list[i]
		fmt.Printf("[%d] %s %s (%s)\n", u.ID, u.Email, u.Username, u.Role)
	}
	fmt.Printf("%d users\n", len(list))
	return nil
}

func (a *app) deleteUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-user", flag.ExitOnError)
	id := fs.Uint("id", 0, "user id")
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	fs.Parse(args)
	if *id == 0 {
		return errors.New("-id is required")
	}
	if *yes {
		a.users.Confirm = func(string) bool { return true }
	}

	if err := a.users.Delete(ctx, uint(*id)); err != nil {
		return err
	}
	fmt.Printf("User %d deleted.\n", *id)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output file (default GIA_Users_<date>.xlsx)")
	fs.Parse(args)

	list, err := a.users.List(ctx)
	if err != nil {
		return err
	}
	path, err := a.users.ExportXLSX(list, *out)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d users to %s\n", len(list), path)
	return nil
}

func (a *app) subscribeCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number (optional)")
	fs.Parse(args)

	err := a.sub.Subscribe(ctx, models.Subscriber{
		Email:     *email,
		FirstName: *first,
		LastName:  *last,
		Phone:     *phone,
	})
	if err != nil {
		return err
	}
	fmt.Println("Subscribed. Welcome to GIA.")
	return nil
}

func (a *app) contentCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("content", flag.ExitOnError)
	section := fs.String("section", "", "section name (hero, about, faq, footer)")
	fs.Parse(args)
	if *section == "" {
		return errors.New("-section is required")
	}

	entry, err := a.content.Get(ctx, *section)
	if err != nil {
		return err
	}
	fmt.Println(entry.Payload)
	return nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StateBackend {
	case "redis":
		return store.NewRedisStore(cfg.RedisURL, "gia")
	default:
		return store.NewFileStore(cfg.StateDir)
	}
}

func parseIDFlag(args []string) (uint, error) {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	id := fs.Uint("id", 0, "post id")
	fs.Parse(args)
	if *id == 0 {
		return 0, errors.New("-id is required")
	}
	return uint(*id), nil
}

// promptConfirm asks for an explicit yes on stdin. Anything else declines.
func promptConfirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func fatal(err error) {
	if errors.Is(err, blog.ErrConfirmationDeclined) || errors.Is(err, users.ErrConfirmationDeclined) {
		fmt.Println("Cancelled.")
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, "Error:", models.ErrorMessage(err, "something went wrong"))
	os.Exit(1)
}
