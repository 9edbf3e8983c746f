// cmd/assistant/commands.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	catalogclient "shopping-assistant/internal/core/catalog-client"
	filterquery "shopping-assistant/internal/core/filter-query"
	suggestionquery "shopping-assistant/internal/core/suggestion-query"
	"shopping-assistant/internal/models"
)

var errUsage = errors.New("usage error")

func usagef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func argID(args []string, cmd string) (models.ProductID, error) {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return "", usagef("%s requires a product id", cmd)
	}
	return models.ProductID(strings.TrimSpace(args[0])), nil
}

// ==========================
// Catalog
// ==========================

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	sortBy := fs.String("sort", "", "Sort order passed to the catalog")
	limit := fs.Int("limit", 0, "Maximum number of products")
	fs.Parse(args)

	params := catalogclient.ListParams{}
	if *sortBy != "" {
		params["sort"] = *sortBy
	}
	if *limit > 0 {
		params["limit"] = strconv.Itoa(*limit)
	}

	products, err := a.catalog.ListProducts(ctx, params)
	if err != nil {
		return err
	}
	printProducts(products, a.favorites.Statuses(ctx, productIDs(products)))
	return nil
}

func (a *app) cmdProduct(ctx context.Context, args []string) error {
	id, err := argID(args, "product")
	if err != nil {
		return err
	}
	p, err := a.catalog.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	inCompare, err := a.compare.Contains(ctx, id)
	if err != nil {
		return err
	}
	printProductDetail(*p, a.favorites.Status(ctx, id), inCompare)
	return nil
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	id, err := argID(args, "history")
	if err != nil {
		return err
	}
	history, err := a.catalog.GetPriceHistory(ctx, id)
	if err != nil {
		return err
	}
	printHistory(history, models.Summarize(history))
	return nil
}

// cmdSearch drives the listing coordinator the way the results page does:
// the flags form the location, which is restored in a single fetch.
func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("q", "", "Free-text query; empty lists all products")
	minPrice := fs.String("min-price", "", "Minimum price")
	maxPrice := fs.String("max-price", "", "Maximum price")
	brand := fs.String("brand", "", "Comma-separated brands ("+strings.Join(filterquery.BrandOptions, ", ")+")")
	minRating := fs.String("min-rating", "", "Minimum rating (0-5)")
	storageOpt := fs.String("storage", "", "Comma-separated storage sizes ("+strings.Join(filterquery.StorageOptions, ", ")+")")
	ram := fs.String("ram", "", "Comma-separated RAM sizes ("+strings.Join(filterquery.RAMOptions, ", ")+")")
	battery := fs.String("battery", "", "Minimum battery capacity (mAh)")
	fs.Parse(args)

	loc := url.Values{}
	set := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			loc.Set(key, val)
		}
	}
	set(filterquery.ParamQuery, *query)
	set(models.FilterMinPrice, *minPrice)
	set(models.FilterMaxPrice, *maxPrice)
	set(models.FilterBrand, *brand)
	set(models.FilterMinRating, *minRating)
	set(models.FilterStorage, *storageOpt)
	set(models.FilterRAM, *ram)
	set(models.FilterBattery, *battery)

	if _, err := models.ParseFilterValues(loc); err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring invalid filters: %v\n", err)
	}

	coordinator := filterquery.NewCoordinator(a.catalog, a.log)
	snap := coordinator.FromLocation(ctx, loc)
	if snap.Route == filterquery.RouteList && !snap.Filters.IsEmpty() {
		fmt.Fprintln(os.Stderr, "Filters apply to searches only; add -q to use them.")
	}
	if snap.NoResults() {
		fmt.Println("No products found")
		return nil
	}
	printProducts(snap.Products, a.favorites.Statuses(ctx, productIDs(snap.Products)))
	if enc := coordinator.Location().Encode(); enc != "" {
		fmt.Printf("\nlocation: ?%s\n", enc)
	}
	return nil
}

// cmdSuggest feeds keystrokes through the suggestion controller. With
// arguments every prefix of the text is typed; otherwise each stdin line is
// one edit of the search box and an empty line closes the dropdown.
func (a *app) cmdSuggest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	delay := fs.Duration("keystroke-delay", 80*time.Millisecond, "Delay between typed characters")
	fs.Parse(args)

	settled := make(chan suggestionquery.Snapshot, 8)
	controller := suggestionquery.NewController(
		suggestionquery.LoadConfig(a.cfg),
		a.catalog,
		a.log,
		suggestionquery.WithOnChange(func(s suggestionquery.Snapshot) {
			if s.State == suggestionquery.StateSettled {
				select {
				case settled <- s:
				default:
				}
			}
		}),
	)
	defer controller.Wait()
	defer controller.Close()

	if text := strings.Join(fs.Args(), " "); text != "" {
		runes := []rune(text)
		for i := 1; i <= len(runes); i++ {
			controller.Input(string(runes[:i]))
			time.Sleep(*delay)
		}
		select {
		case s := <-settled:
			printSuggestions(s)
		case <-time.After(a.catalogTimeout() + time.Second):
			fmt.Println("No suggestions")
		case <-ctx.Done():
		}
		return nil
	}

	go func() {
		for {
			select {
			case s := <-settled:
				printSuggestions(s)
			case <-ctx.Done():
				return
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			controller.Close()
			continue
		}
		controller.Input(line)
	}
	return scanner.Err()
}

func (a *app) catalogTimeout() time.Duration {
	return time.Duration(a.cfg.Catalog.Timeout) * time.Millisecond
}

// ==========================
// Compare
// ==========================

func (a *app) cmdCompare(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usagef("compare requires a subcommand: add, remove, list, clear, show")
	}
	switch args[0] {
	case "add":
		id, err := argID(args[1:], "compare add")
		if err != nil {
			return err
		}
		ids, err := a.compare.Add(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("Added to compare (%d/%d)\n", len(ids), a.compare.Capacity())
	case "remove":
		id, err := argID(args[1:], "compare remove")
		if err != nil {
			return err
		}
		ids, err := a.compare.Remove(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("Compare list has %d product(s)\n", len(ids))
	case "list":
		ids, err := a.compare.List(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("Compare list is empty")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	case "clear":
		if err := a.compare.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Compare list cleared")
	case "show":
		resolved, err := a.compare.Resolve(ctx, a.catalog)
		if err != nil {
			return err
		}
		if len(resolved) == 0 {
			fmt.Println("No products to compare")
			return nil
		}
		printCompareTable(resolved)
	default:
		return usagef("unknown compare subcommand %q", args[0])
	}
	return nil
}

// ==========================
// Favorites
// ==========================

func (a *app) cmdFavorites(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usagef("favorites requires a subcommand: list, add, remove, check, toggle")
	}
	switch args[0] {
	case "list":
		products, err := a.favorites.List(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Println("No favorites yet")
			return nil
		}
		printProducts(products, nil)
	case "add", "toggle":
		id, err := argID(args[1:], "favorites "+args[0])
		if err != nil {
			return err
		}
		current := false
		if args[0] == "toggle" {
			current = a.favorites.Status(ctx, id)
		}
		state, err := a.favorites.Toggle(ctx, id, current)
		if err != nil {
			return err
		}
		fmt.Printf("%s favorite: %v\n", id, state)
	case "remove":
		id, err := argID(args[1:], "favorites remove")
		if err != nil {
			return err
		}
		if err := a.favorites.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Removed %s from favorites\n", id)
	case "check":
		if len(args) < 2 {
			return usagef("favorites check requires at least one product id")
		}
		ids := make([]models.ProductID, 0, len(args)-1)
		for _, raw := range args[1:] {
			ids = append(ids, models.ProductID(raw))
		}
		statuses := a.favorites.Statuses(ctx, ids)
		for _, id := range ids {
			fmt.Printf("%s\t%v\n", id, statuses[id])
		}
	default:
		return usagef("unknown favorites subcommand %q", args[0])
	}
	return nil
}

// ==========================
// Account
// ==========================

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return usagef("login requires -email and -password")
	}

	resp, err := a.catalog.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	printWelcome(resp.User, *email)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	fs.Parse(args)
	if *name == "" || *email == "" || *password == "" {
		return usagef("register requires -name, -email and -password")
	}

	resp, err := a.catalog.Register(ctx, models.RegisterRequest{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	printWelcome(resp.User, *email)
	return nil
}

func (a *app) cmdMe(ctx context.Context) error {
	if !a.session.IsAuthenticated(ctx) {
		fmt.Println("Not logged in")
		return nil
	}
	user, err := a.catalog.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.catalog.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
