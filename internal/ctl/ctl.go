// Package ctl implements the realtyctl subcommands. Each invocation runs a
// single subcommand against the agency and prints its result.
package ctl

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/realty/internal/agency"
	"github.com/dmitrijs2005/realty/internal/catalog"
	"github.com/dmitrijs2005/realty/internal/common"
	"golang.org/x/term"
)

// TokenEnv names the environment variable consulted when -token is absent.
const TokenEnv = "REALTY_TOKEN"

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// getenv is a test seam for os.Getenv.
var getenv = os.Getenv

// Agency is the part of *agency.Agency the subcommands drive.
type Agency interface {
	Bootstrap(ctx context.Context, username, password string) (agency.BootstrapStatus, error)
	LogIn(ctx context.Context, username, password string) (string, error)
	LogOut(ctx context.Context, token string) error
	Whoami(ctx context.Context, token string) (string, error)
	Authorize(ctx context.Context, token string, cmd agency.Command) (string, error)
	AddUser(ctx context.Context, token, username, password string) error
	DeleteUser(ctx context.Context, token, username string) error
	ListUsers(ctx context.Context, token string) ([]string, error)
	AddPermission(ctx context.Context, token, name string) error
	GivePermission(ctx context.Context, token, name, username string) error
	WithdrawPermission(ctx context.Context, token, name, username string) error
	ListPermissions(ctx context.Context, token, username string) ([]string, error)
	ListAllPermissions(ctx context.Context, token string) ([]string, error)
	Grantees(ctx context.Context, token, name string) ([]string, error)
	AddListing(ctx context.Context, token string, l catalog.Listing) (string, error)
	RemoveListing(ctx context.Context, token, id string) error
	Listings(ctx context.Context, token string) ([]catalog.Listing, error)
	FindListing(ctx context.Context, token string, kind catalog.Kind, tr catalog.Transaction, criteria map[string]string) (*catalog.Listing, error)
}

type Subcommand int

const (
	SubcommandBootstrap Subcommand = iota + 1
	SubcommandLogin
	SubcommandLogout
	SubcommandWhoami
	SubcommandUserAdd
	SubcommandUserDel
	SubcommandUsers
	SubcommandPermAdd
	SubcommandGrant
	SubcommandRevoke
	SubcommandPerms
	SubcommandAllPerms
	SubcommandGrantees
	SubcommandCheck
	SubcommandAddListing
	SubcommandRemoveListing
	SubcommandListings
	SubcommandFind
)

func ParseSubcommand(s string) (Subcommand, error) {
	switch strings.ToLower(s) {
	case "bootstrap":
		return SubcommandBootstrap, nil
	case "login":
		return SubcommandLogin, nil
	case "logout":
		return SubcommandLogout, nil
	case "whoami":
		return SubcommandWhoami, nil
	case "useradd":
		return SubcommandUserAdd, nil
	case "userdel":
		return SubcommandUserDel, nil
	case "users":
		return SubcommandUsers, nil
	case "permadd":
		return SubcommandPermAdd, nil
	case "grant":
		return SubcommandGrant, nil
	case "revoke":
		return SubcommandRevoke, nil
	case "perms":
		return SubcommandPerms, nil
	case "allperms":
		return SubcommandAllPerms, nil
	case "grantees":
		return SubcommandGrantees, nil
	case "check":
		return SubcommandCheck, nil
	case "addlisting":
		return SubcommandAddListing, nil
	case "rmlisting":
		return SubcommandRemoveListing, nil
	case "listings":
		return SubcommandListings, nil
	case "find":
		return SubcommandFind, nil
	default:
		return 0, fmt.Errorf("%w: unknown subcommand %q", common.ErrValidation, s)
	}
}

// Usage lists the subcommands and their flags.
const Usage = `usage: realtyctl [config flags] <subcommand> [flags]

subcommands:
  bootstrap -user U [-password P]        create the first account with every permission
  login     -user U [-password P]        log in and print a session token
  logout    [-token T]                   end the session
  whoami    [-token T]                   print the session's username
  useradd   -user U [-password P] [-token T]
  userdel   -user U [-token T]
  users     [-token T]
  permadd   -perm NAME [-token T]
  grant     -perm NAME -user U [-token T]
  revoke    -perm NAME -user U [-token T]
  perms     [-user U] [-token T]         permissions held by U (default: yourself)
  allperms  [-token T]
  grantees  -perm NAME [-token T]        usernames holding NAME
  check     -cmd view|add|remove|users|permissions [-token T]
  addlisting -kind house|apartment -offer purchase|rental [-token T]
            [-sqft N -beds N -baths N]
            [-stories N -garage G -fenced F]           house
            [-laundry L -balcony B]                    apartment
            [-price N -taxes N]                        purchase
            [-rent N -utilities N -furnished F]        rental
  rmlisting -id ID [-token T]
  listings  [-token T]
  find      -kind K -offer O [-where key=value ...] [-token T]

config flags: -c/-config FILE -s STORAGE -d DSN -k SECRET -t MINUTES -x HASHER -g POLICY -l LEVEL -f FORMAT
a missing -password is read from the terminal; a missing -token from $` + TokenEnv + "\n"

type options struct {
	user     string
	password string
	perm     string
	token    string
	cmd      string
	id       string

	kind, offer                      string
	sqft, beds, baths, stories       int
	garage, fenced, laundry, balcony string
	price, taxes, rent, utilities    int64
	furnished                        string
	where                            criteriaFlag
}

// criteriaFlag collects repeated -where key=value flags.
type criteriaFlag []string

func (c *criteriaFlag) String() string {
	return strings.Join(*c, ",")
}

func (c *criteriaFlag) Set(v string) error {
	*c = append(*c, v)
	return nil
}

// Run parses args (subcommand word first) and executes it, writing results
// to w.
func Run(ctx context.Context, a Agency, args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing subcommand\n%s", common.ErrValidation, Usage)
	}

	cmd, err := ParseSubcommand(args[0])
	if err != nil {
		return fmt.Errorf("%w\n%s", err, Usage)
	}

	opts, err := parseOptions(args[0], args[1:])
	if err != nil {
		return err
	}

	switch cmd {
	case SubcommandBootstrap:
		if err := requireFlag(opts.user, "-user"); err != nil {
			return err
		}
		password, err := opts.passwordOrPrompt(w)
		if err != nil {
			return err
		}
		status, err := a.Bootstrap(ctx, opts.user, password)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "bootstrap %s\n", status)
		return err

	case SubcommandLogin:
		if err := requireFlag(opts.user, "-user"); err != nil {
			return err
		}
		password, err := opts.passwordOrPrompt(w)
		if err != nil {
			return err
		}
		token, err := a.LogIn(ctx, opts.user, password)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, token)
		return err

	case SubcommandLogout:
		return a.LogOut(ctx, opts.sessionToken())

	case SubcommandWhoami:
		username, err := a.Whoami(ctx, opts.sessionToken())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, username)
		return err

	case SubcommandUserAdd:
		if err := requireFlag(opts.user, "-user"); err != nil {
			return err
		}
		password, err := opts.passwordOrPrompt(w)
		if err != nil {
			return err
		}
		return a.AddUser(ctx, opts.sessionToken(), opts.user, password)

	case SubcommandUserDel:
		if err := requireFlag(opts.user, "-user"); err != nil {
			return err
		}
		return a.DeleteUser(ctx, opts.sessionToken(), opts.user)

	case SubcommandUsers:
		users, err := a.ListUsers(ctx, opts.sessionToken())
		if err != nil {
			return err
		}
		return printLines(w, users)

	case SubcommandPermAdd:
		if err := requireFlag(opts.perm, "-perm"); err != nil {
			return err
		}
		return a.AddPermission(ctx, opts.sessionToken(), opts.perm)

	case SubcommandGrant, SubcommandRevoke:
		if err := requireFlag(opts.perm, "-perm"); err != nil {
			return err
		}
		if err := requireFlag(opts.user, "-user"); err != nil {
			return err
		}
		if cmd == SubcommandGrant {
			return a.GivePermission(ctx, opts.sessionToken(), opts.perm, opts.user)
		}
		return a.WithdrawPermission(ctx, opts.sessionToken(), opts.perm, opts.user)

	case SubcommandPerms:
		token := opts.sessionToken()
		username := opts.user
		if username == "" {
			if username, err = a.Whoami(ctx, token); err != nil {
				return err
			}
		}
		names, err := a.ListPermissions(ctx, token, username)
		if err != nil {
			return err
		}
		return printLines(w, names)

	case SubcommandAllPerms:
		names, err := a.ListAllPermissions(ctx, opts.sessionToken())
		if err != nil {
			return err
		}
		return printLines(w, names)

	case SubcommandGrantees:
		if err := requireFlag(opts.perm, "-perm"); err != nil {
			return err
		}
		names, err := a.Grantees(ctx, opts.sessionToken(), opts.perm)
		if err != nil {
			return err
		}
		return printLines(w, names)

	case SubcommandCheck:
		if err := requireFlag(opts.cmd, "-cmd"); err != nil {
			return err
		}
		c, err := agency.ParseCommand(opts.cmd)
		if err != nil {
			return err
		}
		if _, err := a.Authorize(ctx, opts.sessionToken(), c); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s: allowed\n", c)
		return err

	case SubcommandAddListing:
		l, err := opts.listing()
		if err != nil {
			return err
		}
		id, err := a.AddListing(ctx, opts.sessionToken(), l)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, id)
		return err

	case SubcommandRemoveListing:
		if err := requireFlag(opts.id, "-id"); err != nil {
			return err
		}
		return a.RemoveListing(ctx, opts.sessionToken(), opts.id)

	case SubcommandListings:
		listings, err := a.Listings(ctx, opts.sessionToken())
		if err != nil {
			return err
		}
		lines := make([]string, 0, len(listings))
		for i := range listings {
			lines = append(lines, formatListing(&listings[i]))
		}
		return printLines(w, lines)

	case SubcommandFind:
		kind, err := catalog.ParseKind(opts.kind)
		if err != nil {
			return err
		}
		offer, err := catalog.ParseTransaction(opts.offer)
		if err != nil {
			return err
		}
		criteria, err := catalog.ParseCriteria(opts.where)
		if err != nil {
			return err
		}
		l, err := a.FindListing(ctx, opts.sessionToken(), kind, offer, criteria)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, formatListing(l))
		return err

	default:
		return fmt.Errorf("%w: unhandled subcommand %q", common.ErrValidation, args[0])
	}
}

func parseOptions(name string, args []string) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.user, "user", "", "username")
	fs.StringVar(&opts.password, "password", "", "password")
	fs.StringVar(&opts.perm, "perm", "", "permission name")
	fs.StringVar(&opts.token, "token", "", "session token")
	fs.StringVar(&opts.cmd, "cmd", "", "agency command")
	fs.StringVar(&opts.id, "id", "", "listing id")

	fs.StringVar(&opts.kind, "kind", "", "property kind")
	fs.StringVar(&opts.offer, "offer", "", "transaction kind")
	fs.IntVar(&opts.sqft, "sqft", 0, "square feet")
	fs.IntVar(&opts.beds, "beds", 0, "bedrooms")
	fs.IntVar(&opts.baths, "baths", 0, "bathrooms")
	fs.IntVar(&opts.stories, "stories", 0, "stories")
	fs.StringVar(&opts.garage, "garage", "", "garage")
	fs.StringVar(&opts.fenced, "fenced", "", "fenced yard")
	fs.StringVar(&opts.laundry, "laundry", "", "laundry")
	fs.StringVar(&opts.balcony, "balcony", "", "balcony")
	fs.Int64Var(&opts.price, "price", 0, "purchase price")
	fs.Int64Var(&opts.taxes, "taxes", 0, "property taxes")
	fs.Int64Var(&opts.rent, "rent", 0, "monthly rent")
	fs.Int64Var(&opts.utilities, "utilities", 0, "monthly utilities")
	fs.StringVar(&opts.furnished, "furnished", "", "furnished")
	fs.Var(&opts.where, "where", "search criterion key=value, repeatable")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrValidation, name, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: %s: unexpected arguments %q", common.ErrValidation, name, fs.Args())
	}
	return opts, nil
}

// listing assembles a Listing from the property and transaction flags that
// apply to -kind and -offer; the others are ignored.
func (o *options) listing() (catalog.Listing, error) {
	kind, err := catalog.ParseKind(o.kind)
	if err != nil {
		return catalog.Listing{}, err
	}
	offer, err := catalog.ParseTransaction(o.offer)
	if err != nil {
		return catalog.Listing{}, err
	}

	l := catalog.Listing{
		Property:    &catalog.PropertyDetails{SquareFeet: o.sqft, Bedrooms: o.beds, Bathrooms: o.baths},
		Transaction: &catalog.TransactionDetails{},
	}

	switch kind {
	case catalog.KindHouse:
		l.Property.House = &catalog.House{Stories: o.stories, Garage: o.garage, Fenced: o.fenced}
	case catalog.KindApartment:
		l.Property.Apartment = &catalog.Apartment{Laundry: o.laundry, Balcony: o.balcony}
	}

	switch offer {
	case catalog.TransactionPurchase:
		l.Transaction.Purchase = &catalog.Purchase{Price: o.price, Taxes: o.taxes}
	case catalog.TransactionRental:
		l.Transaction.Rental = &catalog.Rental{Rent: o.rent, Utilities: o.utilities, Furnished: o.furnished}
	}

	return l, nil
}

// formatListing renders l on one line: id, kind, transaction, then its
// attributes in catalog.AttributeKeys order.
func formatListing(l *catalog.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", l.ID, l.PropertyKind(), l.TransactionKind())

	attrs := l.Attributes()
	for _, k := range catalog.AttributeKeys {
		if v, ok := attrs[k]; ok {
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
	}
	return b.String()
}

func (o *options) sessionToken() string {
	if o.token != "" {
		return o.token
	}
	return getenv(TokenEnv)
}

func (o *options) passwordOrPrompt(w io.Writer) (string, error) {
	if o.password != "" {
		return o.password, nil
	}

	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	if len(pw) == 0 {
		return "", fmt.Errorf("%w: empty password", common.ErrValidation)
	}
	return string(pw), nil
}

func requireFlag(v, flagName string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is required", common.ErrValidation, flagName)
	}
	return nil
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
