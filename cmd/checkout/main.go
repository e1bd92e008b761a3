// Command checkout prices a cart file against a CSV dataset and prints the receipt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/dataset"
	"github.com/noah-isme/toko-checkout/internal/loyalty"
	"github.com/noah-isme/toko-checkout/internal/obs"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "checkout:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dataDir  = fs.String("data", "data", "directory holding catalog.csv, offers.csv, bundles.csv and coupons.csv")
		cartPath = fs.String("cart", "", "cart CSV file; defaults to <data>/cart.csv")
		coupon   = fs.String("coupon", "", "coupon code or description to apply")
		date     = fs.String("date", "", "checkout date as YYYY-MM-DD; defaults to today")
		points   = fs.Int64("points", -1, "loyalty balance in points; negative disables loyalty")
		redeem   = fs.Int64("redeem", 0, "points to redeem")
		columns  = fs.Int("columns", 40, "receipt width")
		logLevel = fs.String("log-level", "warn", "log level written to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cartPath == "" {
		*cartPath = filepath.Join(*dataDir, "cart.csv")
	}

	logger := obs.NewLoggerTo(stderr, "console", *logLevel)

	data, err := dataset.Load(dataset.DefaultFiles(*dataDir))
	if err != nil {
		return err
	}
	teller := checkout.NewTeller(data.Catalog, logger)
	if err := data.Configure(teller); err != nil {
		return err
	}
	if *coupon != "" {
		cp, err := data.Coupons.Lookup(*coupon)
		if err != nil {
			return err
		}
		teller.UseCoupon(cp)
	}

	sc, err := dataset.LoadCart(*cartPath, data.Catalog)
	if err != nil {
		return err
	}

	var opts checkout.Options
	if *date != "" {
		on, err := time.Parse(dateLayout, *date)
		if err != nil {
			return fmt.Errorf("date %q: want YYYY-MM-DD", *date)
		}
		opts.Date = on
	}
	var account *loyalty.Account
	if *points >= 0 {
		account = loyalty.NewAccount(*points)
		opts.Account = account
		opts.PointsToRedeem = *redeem
	} else if *redeem != 0 {
		return errors.New("-redeem needs a loyalty balance set with -points")
	}

	receipt, err := teller.Checkout(ctx, sc, opts)
	if err != nil {
		return err
	}
	if err := checkout.NewPrinter(*columns).Fprint(stdout, receipt); err != nil {
		return err
	}
	if account != nil {
		_, err = fmt.Fprintf(stdout, "Points balance: %d\n", account.Points())
	}
	return err
}
