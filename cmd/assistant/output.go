// cmd/assistant/output.go
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	compareset "shopping-assistant/internal/core/compare-set"
	suggestionquery "shopping-assistant/internal/core/suggestion-query"
	"shopping-assistant/internal/models"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func productIDs(products []models.Product) []models.ProductID {
	ids := make([]models.ProductID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// printProducts renders a listing. favorites may be nil when status is not shown.
func printProducts(products []models.Product, favorites map[models.ProductID]bool) {
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tPRICE\tDISCOUNT\tRATING\tFAV")
	for _, p := range products {
		discount := ""
		if d := p.Discount(); d > 0 {
			discount = fmt.Sprintf("%d%% off", d)
		}
		fav := ""
		if favorites[p.ID] {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			p.ID, p.Name, p.Brand, formatPrice(p.Price), discount, p.Rating, fav)
	}
	w.Flush()
}

func printProductDetail(p models.Product, favorite, inCompare bool) {
	fmt.Printf("%s (%s)\n", p.Name, p.ID)
	if p.Brand != "" {
		fmt.Printf("Brand:    %s\n", p.Brand)
	}
	fmt.Printf("Price:    %s", formatPrice(p.Price))
	if d := p.Discount(); d > 0 {
		fmt.Printf(" (was %s, %d%% off)", formatPrice(*p.OriginalPrice), d)
	}
	fmt.Println()
	if p.Rating > 0 {
		fmt.Printf("Rating:   %.1f (%d reviews)\n", p.Rating, p.ReviewsCount)
	}
	fmt.Printf("Favorite: %v\nCompare:  %v\n", favorite, inCompare)
	if p.Description != "" {
		fmt.Printf("\n%s\n", p.Description)
	}

	w := newTable()
	fmt.Fprintln(w, "\nSPEC\tVALUE")
	for _, key := range models.SpecKeys {
		fmt.Fprintf(w, "%s\t%s\n", key, p.Spec(key))
	}
	w.Flush()
}

func printHistory(history []models.PricePoint, s models.PriceSummary) {
	if len(history) == 0 {
		fmt.Println("No price history")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "DATE\tPRICE")
	for _, p := range history {
		fmt.Fprintf(w, "%s\t%s\n", p.Date.Format("2006-01-02"), formatPrice(p.Price))
	}
	w.Flush()
	fmt.Printf("\nlowest %s, highest %s, change %s (%+.2f%%)\n",
		formatPrice(s.Min), formatPrice(s.Max), formatPrice(s.Change), s.ChangePercent)
}

func printSuggestions(s suggestionquery.Snapshot) {
	if len(s.Suggestions) == 0 {
		fmt.Printf("%q: no suggestions\n", s.Text)
		return
	}
	fmt.Printf("%q:\n", s.Text)
	for _, sg := range s.Suggestions {
		if sg.Brand != "" {
			fmt.Printf("  %s  %s (%s)\n", sg.ID, sg.Name, sg.Brand)
			continue
		}
		fmt.Printf("  %s  %s\n", sg.ID, sg.Name)
	}
}

// printCompareTable lays members out side by side. Members that failed to
// load keep their column with the error in place of values.
func printCompareTable(resolved []compareset.Resolved) {
	w := newTable()

	header := []string{"ATTRIBUTE"}
	for _, r := range resolved {
		header = append(header, string(r.ID))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	row := func(label string, value func(p models.Product) string) {
		cells := []string{label}
		for _, r := range resolved {
			if r.Product == nil {
				cells = append(cells, "unavailable")
				continue
			}
			cells = append(cells, value(*r.Product))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	row("name", func(p models.Product) string { return p.Name })
	row("brand", func(p models.Product) string { return p.Brand })
	row("price", func(p models.Product) string { return formatPrice(p.Price) })
	row("rating", func(p models.Product) string { return fmt.Sprintf("%.1f", p.Rating) })
	for _, key := range models.SpecKeys {
		key := key
		row(key, func(p models.Product) string { return p.Spec(key) })
	}
	w.Flush()

	for _, r := range resolved {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "could not load %s: %v\n", r.ID, r.Err)
		}
	}
}

func printWelcome(user *models.User, email string) {
	if user != nil && user.Name != "" {
		fmt.Printf("Welcome, %s\n", user.Name)
		return
	}
	fmt.Printf("Logged in as %s\n", email)
}
