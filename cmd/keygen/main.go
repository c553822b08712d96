// cmd/keygen/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/javajoker/license-backend/internal/config"
	"github.com/javajoker/license-backend/internal/database"
	"github.com/javajoker/license-backend/internal/services"
	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

type options struct {
	count     int
	expiresIn time.Duration
	expiresAt string
	createdBy string
	hash      string
	events    string
	help      bool
}

func main() {
	logrus.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	openStore := func() (store.LicenseKeyStore, error) {
		if !cfg.Database.IsConfigured() {
			return nil, errors.New("database is not configured (set DB_HOST and DB_NAME, or DB_DRIVER=sqlite and DB_SQLITE_PATH)")
		}
		return database.OpenStore(cfg.Database)
	}

	format := services.KeyFormat{
		Prefix:        cfg.License.KeyPrefix,
		Segments:      cfg.License.KeySegments,
		SegmentLength: cfg.License.KeySegmentLength,
	}

	if err := run(os.Args[1:], os.Stdout, format, openStore); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (*options, *pflag.FlagSet, error) {
	opts := &options{}

	flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVarP(&opts.count, "count", "n", 1, "number of keys to issue")
	flagSet.DurationVar(&opts.expiresIn, "expires-in", 0, "key lifetime, e.g. 720h (default: never expires)")
	flagSet.StringVar(&opts.expiresAt, "expires-at", "", "absolute expiry as RFC 3339 or YYYY-MM-DD")
	flagSet.StringVar(&opts.createdBy, "created-by", os.Getenv("USER"), "issuer recorded on the key")
	flagSet.StringVar(&opts.hash, "hash", "", "print the hash of an existing key and exit")
	flagSet.StringVar(&opts.events, "events", "", "print the audit trail of a key (plaintext or hash) and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return nil, flagSet, err
	}
	if len(flagSet.Args()) > 0 {
		return nil, flagSet, fmt.Errorf("unexpected argument: %s", flagSet.Args()[0])
	}
	if opts.count < 1 {
		return nil, flagSet, errors.New("--count must be at least 1")
	}
	if opts.expiresIn != 0 && opts.expiresAt != "" {
		return nil, flagSet, errors.New("--expires-in and --expires-at are mutually exclusive")
	}
	if opts.hash != "" && opts.events != "" {
		return nil, flagSet, errors.New("--hash and --events are mutually exclusive")
	}
	if opts.expiresIn < 0 {
		return nil, flagSet, errors.New("--expires-in must be positive")
	}
	return opts, flagSet, nil
}

// expiry resolves the requested expiry relative to now. Nil means the key
// never expires.
func (o *options) expiry(now time.Time) (*time.Time, error) {
	switch {
	case o.expiresIn > 0:
		t := now.Add(o.expiresIn).UTC()
		return &t, nil
	case o.expiresAt != "":
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, o.expiresAt); err == nil {
				t = t.UTC()
				return &t, nil
			}
		}
		return nil, fmt.Errorf("cannot parse --expires-at %q", o.expiresAt)
	default:
		return nil, nil
	}
}

func run(args []string, out io.Writer, format services.KeyFormat, openStore func() (store.LicenseKeyStore, error)) error {
	opts, flagSet, err := parseOptions(args)
	if errors.Is(err, pflag.ErrHelp) || (err == nil && opts.help) {
		printHelp(out, flagSet)
		return nil
	}
	if err != nil {
		return err
	}

	if opts.hash != "" {
		fmt.Fprintln(out, services.NewKeyIssuer(nil, format).Hash(opts.hash))
		return nil
	}

	if opts.events != "" {
		return printEvents(out, opts.events, openStore)
	}

	expiresAt, err := opts.expiry(time.Now())
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	issuer := services.NewKeyIssuer(s, format)
	ctx := context.Background()
	for i := 0; i < opts.count; i++ {
		issued, err := issuer.Issue(ctx, services.IssueRequest{ExpiresAt: expiresAt, CreatedBy: opts.createdBy})
		if err != nil {
			return err
		}

		expires := "never"
		if issued.Record.ExpiresAt != nil {
			expires = issued.Record.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", issued.Plaintext, issued.Record.KeyHash, expires)
	}
	return nil
}

// printEvents writes one tab-separated line per audit event of the key:
// TIME, ACTION, OUTCOME, REASON, USERNAME, HWID and IP.
func printEvents(out io.Writer, key string, openStore func() (store.LicenseKeyStore, error)) error {
	keyHash := strings.ToLower(key)
	if !utils.IsSHA256Hex(key) {
		keyHash = utils.HashString(key)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	record, err := s.FindOne(ctx, store.Filter{KeyHash: keyHash})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no license key with hash %s", keyHash)
	}
	if err != nil {
		return err
	}

	events, err := s.ListEvents(ctx, record.ID)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Action, e.Outcome,
			dash(e.Reason), dash(e.Username), dash(e.HWID), dash(e.IPAddress))
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printHelp(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(out, `keygen issues license keys into the configured store.

Each issued key is printed once as KEY, HASH and EXPIRY separated by tabs.
Only the hash is stored; the plaintext key cannot be recovered later.

Usage:
  keygen [flags]

Examples:
  keygen --count 10 --expires-in 8760h
  keygen --expires-at 2027-01-01 --created-by sales
  keygen --hash FORTE-ABCD-EFGH-IJKL
  keygen --events FORTE-ABCD-EFGH-IJKL

Flags:
%s`, flagSet.FlagUsages())
}
