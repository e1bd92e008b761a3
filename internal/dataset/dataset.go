package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

const dateLayout = "2006-01-02"

// Files names the CSV sources of a dataset. Missing files load as empty.
type Files struct {
	Catalog string
	Offers  string
	Bundles string
	Coupons string
}

// DefaultFiles returns the conventional file names inside dir.
func DefaultFiles(dir string) Files {
	return Files{
		Catalog: filepath.Join(dir, "catalog.csv"),
		Offers:  filepath.Join(dir, "offers.csv"),
		Bundles: filepath.Join(dir, "bundles.csv"),
		Coupons: filepath.Join(dir, "coupons.csv"),
	}
}

// Data is a fully parsed dataset.
type Data struct {
	Catalog *catalog.Memory
	Offers  []pricing.Offer
	Bundles []pricing.BundleOffer
	Coupons *voucher.Book
}

// Load reads every file in order; offers, bundles and coupons resolve products
// against the loaded catalog.
func Load(files Files) (*Data, error) {
	data := &Data{Catalog: catalog.NewMemory(), Coupons: voucher.NewBook()}
	err := withFile(files.Catalog, func(r io.Reader) error {
		_, err := ReadCatalog(r, data.Catalog)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = withFile(files.Offers, func(r io.Reader) error {
		offers, err := ReadOffers(r, data.Catalog)
		data.Offers = offers
		return err
	})
	if err != nil {
		return nil, err
	}
	err = withFile(files.Bundles, func(r io.Reader) error {
		bundles, err := ReadBundles(r, data.Catalog)
		data.Bundles = bundles
		return err
	})
	if err != nil {
		return nil, err
	}
	err = withFile(files.Coupons, func(r io.Reader) error {
		coupons, err := ReadCoupons(r, data.Catalog)
		if err != nil {
			return err
		}
		for _, c := range coupons {
			if err := data.Coupons.Add(c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Configure registers the offers and bundles on t.
func (d *Data) Configure(t *checkout.Teller) error {
	for _, o := range d.Offers {
		if err := t.AddSpecialOffer(o); err != nil {
			return err
		}
	}
	for _, b := range d.Bundles {
		t.AddBundleOffer(b)
	}
	return nil
}

// LoadCart reads a cart file resolved against c.
func LoadCart(path string, c *catalog.Memory) (*cart.ShoppingCart, error) {
	sc := cart.New()
	err := withFile(path, func(r io.Reader) error {
		var err error
		sc, err = ReadCart(r, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadCatalog parses name,unit,price rows into c and returns the row count.
func ReadCatalog(src io.Reader, c *catalog.Memory) (int, error) {
	rows, err := readRows(src, "name", "unit", "price")
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		name := r.get("name")
		if name == "" {
			return 0, r.errorf("empty product name")
		}
		unit, err := catalog.ParseUnit(r.get("unit"))
		if err != nil {
			return 0, r.wrap(err)
		}
		price, err := parseDecimal(r, "price")
		if err != nil {
			return 0, err
		}
		if price.IsNegative() {
			return 0, r.errorf("negative price %s", price)
		}
		c.Add(catalog.NewProduct(name, unit), price)
	}
	return len(rows), nil
}

// ReadOffers parses name,offer,argument rows.
func ReadOffers(src io.Reader, c *catalog.Memory) ([]pricing.Offer, error) {
	rows, err := readRows(src, "name", "offer")
	if err != nil {
		return nil, err
	}
	offers := make([]pricing.Offer, 0, len(rows))
	for _, r := range rows {
		p, err := lookup(r, c, r.get("name"))
		if err != nil {
			return nil, err
		}
		arg := decimal.Zero
		if r.get("argument") != "" {
			if arg, err = parseDecimal(r, "argument"); err != nil {
				return nil, err
			}
		}
		o, err := pricing.ParseOffer(r.get("offer"), p, arg)
		if err != nil {
			return nil, r.wrap(err)
		}
		offers = append(offers, o)
	}
	return offers, nil
}

// ReadBundles parses bundle_name,discount_percent,items rows where items is
// "product:qty;product:qty". Rows without items are skipped.
func ReadBundles(src io.Reader, c *catalog.Memory) ([]pricing.BundleOffer, error) {
	rows, err := readRows(src, "items")
	if err != nil {
		return nil, err
	}
	var bundles []pricing.BundleOffer
	for _, r := range rows {
		spec := r.get("items")
		if spec == "" {
			continue
		}
		var items []pricing.BundleItem
		for _, part := range strings.Split(spec, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, qtyRaw, ok := strings.Cut(part, ":")
			if !ok {
				return nil, r.errorf("bundle item %q must be product:qty", part)
			}
			p, err := lookup(r, c, name)
			if err != nil {
				return nil, err
			}
			qty, err := decimal.NewFromString(strings.TrimSpace(qtyRaw))
			if err != nil {
				return nil, r.errorf("quantity %q: %v", qtyRaw, err)
			}
			items = append(items, pricing.BundleItem{Product: p, Quantity: qty})
		}
		percent := pricing.DefaultBundlePercent
		if r.get("discount_percent") != "" {
			if percent, err = parseDecimal(r, "discount_percent"); err != nil {
				return nil, err
			}
		}
		b, err := pricing.NewBundleOffer(r.get("bundle_name"), items, percent)
		if err != nil {
			return nil, r.wrap(err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// ReadCoupons parses
// name,product,required_qty,discounted_qty,discount_percent,valid_from,valid_to,description rows.
func ReadCoupons(src io.Reader, c *catalog.Memory) ([]*voucher.Coupon, error) {
	rows, err := readRows(src, "product", "required_qty", "discounted_qty", "discount_percent", "valid_from", "valid_to")
	if err != nil {
		return nil, err
	}
	coupons := make([]*voucher.Coupon, 0, len(rows))
	for _, r := range rows {
		p, err := lookup(r, c, r.get("product"))
		if err != nil {
			return nil, err
		}
		params := voucher.Params{Code: r.get("name"), Product: p}
		if params.RequiredQty, err = parseDecimal(r, "required_qty"); err != nil {
			return nil, err
		}
		if params.DiscountedQty, err = parseDecimal(r, "discounted_qty"); err != nil {
			return nil, err
		}
		if params.Percent, err = parseDecimal(r, "discount_percent"); err != nil {
			return nil, err
		}
		if params.ValidFrom, err = parseDate(r, "valid_from"); err != nil {
			return nil, err
		}
		if params.ValidTo, err = parseDate(r, "valid_to"); err != nil {
			return nil, err
		}
		params.Description = r.get("description")
		if params.Description == "" {
			params.Description = r.get("name")
		}
		cp, err := voucher.New(params)
		if err != nil {
			return nil, r.wrap(err)
		}
		coupons = append(coupons, cp)
	}
	return coupons, nil
}

// ReadCart parses name,quantity rows into a cart, preserving row order.
func ReadCart(src io.Reader, c *catalog.Memory) (*cart.ShoppingCart, error) {
	rows, err := readRows(src, "name", "quantity")
	if err != nil {
		return nil, err
	}
	sc := cart.New()
	for _, r := range rows {
		p, err := lookup(r, c, r.get("name"))
		if err != nil {
			return nil, err
		}
		qty, err := parseDecimal(r, "quantity")
		if err != nil {
			return nil, err
		}
		if err := sc.AddItemQuantity(p, qty); err != nil {
			return nil, r.wrap(err)
		}
	}
	return sc, nil
}

func lookup(r row, c *catalog.Memory, name string) (catalog.Product, error) {
	p, ok := c.Lookup(name)
	if !ok {
		return catalog.Product{}, r.wrap(fmt.Errorf("%q: %w", strings.TrimSpace(name), catalog.ErrUnknownProduct))
	}
	return p, nil
}

func parseDecimal(r row, column string) (decimal.Decimal, error) {
	raw := r.get(column)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, r.errorf("%s %q is not a number", column, raw)
	}
	return d, nil
}

func parseDate(r row, column string) (time.Time, error) {
	raw := r.get(column)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, r.errorf("%s %q is not a YYYY-MM-DD date", column, raw)
	}
	return t, nil
}
