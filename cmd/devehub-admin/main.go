// Package main is the entry point for the DeveHub admin CLI.
// This tool inspects the seeded marketplace: catalog checks, payout
// aggregates, user lifecycle and dry payout cycles.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/lock"
	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/repository/memory"
	"github.com/prn-tf/devehub/internal/seed"
	"github.com/prn-tf/devehub/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("DeveHub Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "catalog":
		err = runCatalog(args)

	case "payouts":
		err = runPayouts(args)

	case "users":
		err = runUsers(args)

	case "cycle":
		err = runCycle(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`DeveHub Admin CLI

Usage:
  devehub-admin <command> [arguments]

Commands:
  catalog     Validate a seed catalog file
  payouts     Show platform or developer payout aggregates
  users       List users and their deletion eligibility
  cycle       Run a payout cycle against seeded data at a given date
  version     Print version information
  help        Show this help message

Examples:
  devehub-admin catalog --file configs/catalog.yaml
  devehub-admin payouts --seed 42 --developer PixelLabs
  devehub-admin users --seed 42
  devehub-admin cycle --seed 42 --date 2026-11-14

Use "devehub-admin <command> --help" for more information about a command.`)
}

// =============================================================================
// Shared
// =============================================================================

type seedFlags struct {
	file string
	seed uint64
	date string
}

func (f *seedFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "file", "", "catalog file (default: embedded catalog)")
	fs.Uint64Var(&f.seed, "seed", 0, "license generation seed (0 = random)")
	fs.StringVar(&f.date, "date", "", "evaluation date YYYY-MM-DD (default: today)")
}

func (f *seedFlags) now() (time.Time, error) {
	if f.date == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", f.date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date: %w", err)
	}
	return t, nil
}

func (f *seedFlags) catalog() (*seed.Catalog, error) {
	if f.file == "" {
		return seed.DefaultCatalog()
	}
	data, err := os.ReadFile(f.file)
	if err != nil {
		return nil, err
	}
	return seed.ParseCatalog(data)
}

// load seeds a fresh in-memory store anchored at the evaluation date.
func (f *seedFlags) load(ctx context.Context) (*repository.Store, time.Time, error) {
	now, err := f.now()
	if err != nil {
		return nil, time.Time{}, err
	}
	catalog, err := f.catalog()
	if err != nil {
		return nil, time.Time{}, err
	}

	store := memory.NewStore()
	opts := seed.DefaultOptions(now)
	opts.RandomSeed = f.seed
	if _, err := seed.Load(ctx, store, catalog, opts, zerolog.Nop()); err != nil {
		return nil, time.Time{}, err
	}
	return store, now, nil
}

func payoutService(store *repository.Store) *service.PayoutService {
	return service.NewPayoutService(store.Projects, store.Licenses, lock.NewMemoryLocker(), nil, zerolog.Nop(), service.DefaultPayoutConfig())
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// =============================================================================
// Commands
// =============================================================================

func runCatalog(args []string) error {
	var f seedFlags
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	f.register(fs)
	_ = fs.Parse(args)

	catalog, err := f.catalog()
	if err != nil {
		return err
	}
	projects, err := catalog.DomainProjects()
	if err != nil {
		return err
	}
	users, err := catalog.DomainUsers(time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Catalog OK: %d projects, %d users\n", len(projects), len(users))
	return nil
}

func runPayouts(args []string) error {
	var f seedFlags
	var developer string
	fs := flag.NewFlagSet("payouts", flag.ExitOnError)
	f.register(fs)
	fs.StringVar(&developer, "developer", "", "show a single developer")
	_ = fs.Parse(args)

	ctx := context.Background()
	store, now, err := f.load(ctx)
	if err != nil {
		return err
	}
	svc := payoutService(store)

	if developer != "" {
		summary, err := svc.DeveloperSummary(ctx, developer, now)
		if err != nil {
			return err
		}
		fmt.Printf("Developer:        %s\n", summary.Developer)
		fmt.Printf("Pending payout:   %s\n", summary.Pending)
		fmt.Printf("Gross:            %s\n", summary.Gross)
		fmt.Printf("Sales / refunds:  %d / %d\n", summary.Sales, summary.Refunds)
		fmt.Printf("Next payout date: %s\n\n", summary.NextPayoutDate.Format("January 2, 2006"))

		w := newTable()
		fmt.Fprintln(w, "PROJECT\tSALES\tGROSS\tHELD\tREADY\tPAID")
		for _, p := range summary.Projects {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", p.ProjectName, p.Sales, p.Gross, p.Held, p.Ready, p.Paid)
		}
		return w.Flush()
	}

	summary, err := svc.PlatformSummary(ctx, now)
	if err != nil {
		return err
	}
	fmt.Printf("Active revenue:   %s\n", summary.ActiveRevenue)
	fmt.Printf("Refunded:         %s (%d)\n", summary.RefundedAmount, summary.RefundedCount)
	fmt.Printf("Platform fees:    %s\n", summary.PlatformFees)
	fmt.Printf("Pending payouts:  %s\n", summary.PendingTotal)
	fmt.Printf("Next payout date: %s\n\n", summary.NextPayoutDate.Format("January 2, 2006"))

	developers := make([]string, 0, len(summary.PendingByDeveloper))
	for d := range summary.PendingByDeveloper {
		developers = append(developers, d)
	}
	sort.Strings(developers)

	w := newTable()
	fmt.Fprintln(w, "DEVELOPER\tPENDING")
	for _, d := range developers {
		fmt.Fprintf(w, "%s\t%s\n", d, summary.PendingByDeveloper[d])
	}
	return w.Flush()
}

func runUsers(args []string) error {
	var f seedFlags
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	f.register(fs)
	_ = fs.Parse(args)

	ctx := context.Background()
	store, now, err := f.load(ctx)
	if err != nil {
		return err
	}
	users, err := store.Users.List(ctx)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tLAST LOGIN\tDELETABLE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Role, u.LastLogin.Format("1/2/2006"), ledger.Deletable(u, now))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d users eligible for deletion\n", ledger.DeletableCount(users, now), len(users))
	return nil
}

func runCycle(args []string) error {
	var f seedFlags
	fs := flag.NewFlagSet("cycle", flag.ExitOnError)
	f.register(fs)
	_ = fs.Parse(args)

	ctx := context.Background()
	store, now, err := f.load(ctx)
	if err != nil {
		return err
	}

	result, err := payoutService(store).RunCycle(ctx, now)
	if err != nil {
		return err
	}
	fmt.Printf("Cycle at %s: released %d, settled %d (payout day: %t, errors: %d)\n",
		result.RanAt.Format("1/2/2006"), result.Released, result.Settled, result.PayoutDay, result.Errors)
	return nil
}
