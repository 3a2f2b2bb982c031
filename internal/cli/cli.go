// Package cli is the command-line front end of linkkeeper. Every command is
// checked against the route guard first and then maps to one or two calls of
// the session store or the link directory.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/patric-chuzhbe/linkkeeper/internal/apiclient"
	"github.com/patric-chuzhbe/linkkeeper/internal/forms"
	"github.com/patric-chuzhbe/linkkeeper/internal/guard"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
	"github.com/patric-chuzhbe/linkkeeper/internal/viewmodel"
)

const sessionExpiredMessage = "session expired, please log in"

var (
	// ErrUsage is returned for an unknown command or bad arguments.
	ErrUsage = errors.New("usage error")

	// ErrSessionExpired is returned after the API rejected the token.
	ErrSessionExpired = errors.New(sessionExpiredMessage)

	// ErrLoginRequired is returned when a protected command runs without
	// a session. No request is sent in that case.
	ErrLoginRequired = errors.New("not logged in, run `linkkeeper login` first")
)

type sessionStore interface {
	Login(ctx context.Context, request models.LoginRequest) (models.Session, error)
	Register(ctx context.Context, request models.RegisterRequest) (models.Session, error)
	Logout()
	Current() (models.Session, bool)
}

type linkDirectory interface {
	List(ctx context.Context) ([]models.Link, error)
	Get(ctx context.Context, id string) (models.Link, error)
	Create(ctx context.Context, request models.LinkRequest) (models.Link, error)
	Update(ctx context.Context, id string, request models.LinkRequest) (models.Link, error)
	Delete(ctx context.Context, id string) error
}

type routeGuard interface {
	Decide(path string) guard.Decision
}

type command struct {
	// route is the client route guarding the command; "" means unguarded.
	route string
	usage string
	run   func(ctx context.Context, args []string) error
}

// CLI runs one command per invocation.
type CLI struct {
	store    sessionStore
	links    linkDirectory
	guard    routeGuard
	out      io.Writer
	errOut   io.Writer
	commands map[string]command
}

// New returns a CLI printing command results to out. Usage, flag errors,
// field errors and the session notice go to errOut.
func New(store sessionStore, links linkDirectory, g routeGuard, out, errOut io.Writer) *CLI {
	c := &CLI{
		store:  store,
		links:  links,
		guard:  g,
		out:    out,
		errOut: errOut,
	}

	c.commands = map[string]command{
		"login":      {routes.Login, "login -user <username or email> -password <password>", c.login},
		"register":   {routes.Register, "register -username <name> -email <email> -password <password> -confirm <password>", c.register},
		"logout":     {"", "logout", c.logout},
		"whoami":     {"", "whoami", c.whoami},
		"dashboard":  {routes.Dashboard, "dashboard", c.dashboard},
		"list":       {routes.Links, "list [-q text] [-category name] [-sort title|createDate] [-order asc|desc] [-page n] [-page-size 10|20|50|100]", c.list},
		"categories": {routes.Links, "categories", c.categories},
		"get":        {routes.Links, "get <id>", c.get},
		"add":        {routes.NewLink, "add -title <title> -url <url> -category <category> [-description text]", c.add},
		"edit":       {routes.Links, "edit <id> [-title ...] [-url ...] [-category ...] [-description ...]", c.edit},
		"delete":     {routes.Links, "delete <id>", c.delete},
	}

	return c
}

// Usage prints every command.
func (c *CLI) Usage() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.errOut, "Usage: linkkeeper [global flags] <command> [flags]")
	fmt.Fprintln(c.errOut, "Commands:")
	fmt.Fprintln(c.errOut, "  serve")
	for _, name := range names {
		fmt.Fprintln(c.errOut, "  "+c.commands[name].usage)
	}
}

// Run executes the command named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.Usage()
		return ErrUsage
	}

	cmd, ok := c.commands[args[0]]
	if !ok {
		c.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	if cmd.route != "" && c.guard.Decide(cmd.route) == guard.RedirectToLogin {
		return ErrLoginRequired
	}

	return c.report(cmd.run(ctx, args[1:]))
}

func (c *CLI) report(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, apiclient.ErrUnauthorized) {
		fmt.Fprintln(c.errOut, sessionExpiredMessage)
		return ErrSessionExpired
	}

	if fieldErrors, ok := forms.AsFieldErrors(err); ok {
		fields := make([]string, 0, len(fieldErrors))
		for field := range fieldErrors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		w := tabwriter.NewWriter(c.errOut, 0, 0, 2, ' ', 0)
		for _, field := range fields {
			fmt.Fprintf(w, "%s:\t%s\n", field, fieldErrors[field])
		}
		_ = w.Flush()
	}

	return err
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	return fs
}

func (c *CLI) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Join(ErrUsage, err)
	}

	return nil
}

// idArg splits "<id> [flags]" into the id and the flags.
func idArg(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: link id is required", ErrUsage)
	}

	return args[0], args[1:], nil
}

func (c *CLI) login(ctx context.Context, args []string) error {
	var form forms.LoginForm
	fs := c.flagSet("login")
	fs.StringVar(&form.UsernameOrEmail, "user", "", "username or email")
	fs.StringVar(&form.Password, "password", "", "password")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	sess, err := form.Submit(ctx, c.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s\n", sess.Username)

	return nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	var form forms.RegisterForm
	fs := c.flagSet("register")
	fs.StringVar(&form.Username, "username", "", "username")
	fs.StringVar(&form.Email, "email", "", "email")
	fs.StringVar(&form.Password, "password", "", "password")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	sess, err := form.Submit(ctx, c.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered and logged in as %s\n", sess.Username)

	return nil
}

func (c *CLI) logout(_ context.Context, _ []string) error {
	c.store.Logout()
	fmt.Fprintln(c.out, "logged out")

	return nil
}

func (c *CLI) whoami(_ context.Context, _ []string) error {
	sess, ok := c.store.Current()
	if !ok {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", sess.ID)
	fmt.Fprintf(w, "Username:\t%s\n", sess.Username)
	fmt.Fprintf(w, "Email:\t%s\n", sess.Email)
	fmt.Fprintf(w, "Role:\t%s\n", sess.Role)

	return w.Flush()
}

func (c *CLI) dashboard(ctx context.Context, _ []string) error {
	links, err := c.links.List(ctx)
	if err != nil {
		return err
	}
	summary := viewmodel.Summarize(links)

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total links:\t%d\n", summary.TotalLinks)
	fmt.Fprintf(w, "Categories:\t%d\n", summary.TotalCategories)
	if len(summary.ByCategory) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "CATEGORY\tLINKS")
		for _, count := range summary.ByCategory {
			fmt.Fprintf(w, "%s\t%d\n", count.Category, count.Count)
		}
	}
	if len(summary.Recent) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "RECENT\tURL")
		for _, link := range summary.Recent {
			fmt.Fprintf(w, "%s\t%s\n", link.Title, link.URL)
		}
	}

	return w.Flush()
}

func (c *CLI) list(ctx context.Context, args []string) error {
	var (
		query          viewmodel.Query
		sortBy, order  string
		page, pageSize int
	)
	fs := c.flagSet("list")
	fs.StringVar(&query.Text, "q", "", "search in title, url and description")
	fs.StringVar(&query.Category, "category", viewmodel.AllCategories, "category, or \"all\"")
	fs.StringVar(&sortBy, "sort", "", "sort by title or createDate")
	fs.StringVar(&order, "order", "", "asc or desc")
	fs.IntVar(&page, "page", 1, "page number, starting at 1")
	fs.IntVar(&pageSize, "page-size", viewmodel.DefaultPageSize, "links per page")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	var err error
	if query.SortBy, err = viewmodel.ParseSortField(sortBy); err != nil {
		return errors.Join(ErrUsage, err)
	}
	if query.Order, err = viewmodel.ParseSortOrder(order); err != nil {
		return errors.Join(ErrUsage, err)
	}
	query.Page = page
	query.PageSize = pageSize

	links, err := c.links.List(ctx)
	if err != nil {
		return err
	}
	view, err := viewmodel.Derive(links, query)
	if err != nil {
		return errors.Join(ErrUsage, err)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tURL")
	for _, link := range view.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", link.ID, link.Title, link.Category, link.URL)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "page %d of %d, %d matching links\n", view.Page.Page, view.Pages, view.Total)

	return nil
}

func (c *CLI) categories(ctx context.Context, _ []string) error {
	links, err := c.links.List(ctx)
	if err != nil {
		return err
	}
	for _, category := range viewmodel.Categories(links) {
		fmt.Fprintln(c.out, category)
	}

	return nil
}

func (c *CLI) get(ctx context.Context, args []string) error {
	id, _, err := idArg(args)
	if err != nil {
		return err
	}

	link, err := c.links.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.printLink(link)
}

func (c *CLI) printLink(link models.Link) error {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", link.ID)
	fmt.Fprintf(w, "Title:\t%s\n", link.Title)
	fmt.Fprintf(w, "URL:\t%s\n", link.URL)
	fmt.Fprintf(w, "Category:\t%s\n", link.Category)
	if link.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", link.Description)
	}
	if !link.CreateDate.IsZero() {
		fmt.Fprintf(w, "Created:\t%s\n", link.CreateDate.Format("2006-01-02 15:04"))
	}
	if !link.UpdateDate.IsZero() {
		fmt.Fprintf(w, "Updated:\t%s\n", link.UpdateDate.Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

func (c *CLI) linkFlags(name string, form *forms.LinkForm) *flag.FlagSet {
	fs := c.flagSet(name)
	fs.StringVar(&form.Title, "title", form.Title, "title")
	fs.StringVar(&form.URL, "url", form.URL, "url")
	fs.StringVar(&form.Description, "description", form.Description, "description")
	fs.StringVar(&form.Category, "category", form.Category, "category, e.g. one of "+strings.Join(forms.SuggestedCategories, ", "))

	return fs
}

func (c *CLI) add(ctx context.Context, args []string) error {
	var form forms.LinkForm
	if err := c.parse(c.linkFlags("add", &form), args); err != nil {
		return err
	}

	link, err := form.Submit(ctx, c.links, "")
	if err != nil {
		return err
	}

	return c.printLink(link)
}

// edit starts from the current link, so omitted flags keep their values.
func (c *CLI) edit(ctx context.Context, args []string) error {
	id, rest, err := idArg(args)
	if err != nil {
		return err
	}

	current, err := c.links.Get(ctx, id)
	if err != nil {
		return err
	}
	form := forms.LinkFormFrom(current)
	if err := c.parse(c.linkFlags("edit", &form), rest); err != nil {
		return err
	}

	link, err := form.Submit(ctx, c.links, id)
	if err != nil {
		return err
	}

	return c.printLink(link)
}

func (c *CLI) delete(ctx context.Context, args []string) error {
	id, _, err := idArg(args)
	if err != nil {
		return err
	}

	if err := c.links.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %s\n", id)

	return nil
}
