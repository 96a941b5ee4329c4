// Package checkout turns a finished wizard draft into a backend order and
// submits it exactly once.
package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/wizard"
)

var hundred = decimal.NewFromInt(100)

// BuildPayload maps a draft onto the order body. Tiers keep their order and
// are numbered from 1; the address is only sent for doorstep delivery.
func BuildPayload(d *wizard.OrderDraft) backend.OrderPayload {
	p := backend.OrderPayload{
		OrderType:      d.Flow.Name,
		BaseCakeID:     d.BaseCakeID,
		Shape:          string(d.Shape),
		NumberOfTiers:  d.NumberOfTiers,
		Tiers:          make([]backend.TierPayload, 0, len(d.Tiers)),
		Covering:       string(d.Covering),
		CustomerNote:   strings.TrimSpace(d.CustomerNote),
		DeliveryMethod: d.Delivery.Method.Wire(),
		DeliveryDate:   d.Delivery.Date,
	}
	if d.Delivery.Method == enum.DeliveryDoorstep {
		p.DeliveryAddress = strings.TrimSpace(d.Delivery.Address)
	}

	for i, t := range d.Tiers {
		shares := EvenShares(len(t.Flavors))
		flavors := make([]backend.FlavorShare, len(t.Flavors))
		for j, f := range t.Flavors {
			flavors[j] = backend.FlavorShare{
				Name:          string(f.Flavor),
				Percentage:    shares[j],
				Special:       string(f.Special),
				Specification: f.Specification,
			}
		}
		p.Tiers = append(p.Tiers, backend.TierPayload{
			TierNumber:      i + 1,
			Size:            SizeDescriptor(d.Shape, t.Size),
			NumberOfFlavors: t.FlavorCount,
			Flavors:         flavors,
		})
	}
	return p
}

// SizeDescriptor renders tier dimensions the way the bakery reads them,
// e.g. "8 inches diameter x 10 inches height".
func SizeDescriptor(shape enum.Shape, s wizard.Size) string {
	fields := wizard.RequiredSizeFields(shape)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%d inches %s", s.Value(f), f)
	}
	return strings.Join(parts, " x ")
}

// EvenShares splits 100 percent into n shares of 100/n at two decimal
// places. Leftover cents go one each to the leading shares, so every share
// is within 0.01 of 100/n and the total is exactly 100.
func EvenShares(n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	count := decimal.NewFromInt(int64(n))
	each := hundred.Div(count).Truncate(2)
	cent := decimal.New(1, -2)
	left := hundred.Sub(each.Mul(count)).Div(cent).IntPart()

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = each
		if int64(i) < left {
			shares[i] = each.Add(cent)
		}
	}
	return shares
}

// SplitFlavors turns a comma-separated flavor list, as typed into the admin
// ready-made form, into evenly shared flavor entries. Blank items are dropped.
func SplitFlavors(csv string) []backend.FlavorShare {
	var names []string
	for _, name := range strings.Split(csv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	shares := EvenShares(len(names))
	out := make([]backend.FlavorShare, len(names))
	for i, name := range names {
		out[i] = backend.FlavorShare{Name: name, Percentage: shares[i]}
	}
	return out
}
