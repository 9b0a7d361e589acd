// ABOUTME: Subcommand handlers for the lemon CLI
// ABOUTME: Each command resumes the signed-in session and prints results as tables

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/lemon-store/internal/catalog"
	"github.com/2389/lemon-store/internal/shop"
	"github.com/2389/lemon-store/internal/store"
)

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.cmdRegister(ctx)
	case "login":
		return a.cmdLogin(ctx, args)
	case "menu":
		return a.cmdMenu(args)
	}

	// Everything below needs a signed-in account
	sess, err := a.shop.Resume(ctx)
	if err != nil {
		return err
	}

	switch cmd {
	case "logout":
		return a.cmdLogout(sess)
	case "whoami":
		return cmdWhoami(ctx, sess)
	case "profile":
		return cmdProfile(ctx, sess, args)
	case "basket":
		return cmdBasket(ctx, sess)
	case "add":
		return cmdAdd(ctx, sess, args)
	case "qty":
		return cmdQty(ctx, sess, args)
	case "inc":
		return cmdInc(ctx, sess, args)
	case "dec":
		return cmdDec(ctx, sess, args)
	case "remove":
		return cmdRemove(ctx, sess, args)
	case "clear":
		return cmdClear(ctx, sess)
	case "checkout":
		return cmdCheckout(ctx, sess)
	case "orders":
		return cmdOrders(ctx, sess)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) cmdRegister(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)

	reg := &store.Registration{
		FirstName: prompt(reader, "First name", ""),
		LastName:  prompt(reader, "Last name", ""),
		Email:     prompt(reader, "Email", ""),
		Phone:     prompt(reader, "Phone", ""),
		Secret:    prompt(reader, "Password", ""),
	}
	if reg.FirstName == "" || reg.Email == "" || reg.Secret == "" {
		return errors.New("first name, email and password are required")
	}

	sess, err := a.shop.Register(ctx, reg)
	if err != nil {
		return err
	}

	color.Green("✓ Registered and signed in (account %d)", sess.AccountID())
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		email = prompt(reader, "Email", "")
	}
	secret := prompt(reader, "Password", "")

	sess, err := a.shop.Login(ctx, email, secret)
	if errors.Is(err, store.ErrNotFound) {
		return errors.New("email or password is wrong")
	}
	if err != nil {
		return err
	}

	color.Green("✓ Signed in (account %d)", sess.AccountID())
	return nil
}

func (a *app) cmdLogout(sess *shop.Session) error {
	if err := sess.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func cmdWhoami(ctx context.Context, sess *shop.Session) error {
	acct, err := sess.Profile(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("  %s %s", acct.FirstName, acct.LastName)
	fmt.Printf(" <%s>\n", acct.Email)
	return nil
}

// cmdMenu lists the menu, optionally narrowed to a category and a search query.
func (a *app) cmdMenu(args []string) error {
	category := catalog.AllCategories
	query := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--query", "-q":
			if i+1 < len(args) {
				query = args[i+1]
				i++
			}
		default:
			category = args[i]
		}
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	fmt.Println()
	cyan.Println("  Menu")
	cyan.Println("  ----")
	gray.Printf("  %s | %s\n\n", catalog.AllCategories, strings.Join(a.menu.Categories(), " | "))

	items := a.menu.Filter(category, query)
	if len(items) == 0 {
		fmt.Println("  (nothing matches)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tCATEGORY\tPRICE")
	fmt.Fprintln(w, "  --\t----\t--------\t-----")
	for _, p := range items {
		fmt.Fprintf(w, "  %s\t%s %s\t%s\t%s\n", p.ID, p.Glyph, p.Name, p.Category, money(p.Price.StringFixed(2)))
	}
	w.Flush()
	fmt.Println()

	return nil
}

func cmdBasket(ctx context.Context, sess *shop.Session) error {
	basket, err := sess.Basket(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Basket")
	cyan.Println("  ------")

	if len(basket.Lines) == 0 {
		fmt.Println("  (empty)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  LINE\tITEM\tQTY\tPRICE\tSUBTOTAL")
	fmt.Fprintln(w, "  ----\t----\t---\t-----\t--------")
	for _, l := range basket.Lines {
		fmt.Fprintf(w, "  %d\t%s %s\t%d\t%s\t%s\n",
			l.ID, l.Glyph, l.Name, l.Quantity,
			money(l.Price.StringFixed(2)), money(l.Subtotal().StringFixed(2)))
	}
	w.Flush()

	fmt.Println()
	color.New(color.Bold).Printf("  %d items, total %s\n", basket.Count, money(basket.Total.StringFixed(2)))
	fmt.Println()
	return nil
}

func cmdAdd(ctx context.Context, sess *shop.Session, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: lemon add <product>")
	}

	line, err := sess.Add(ctx, args[0])
	if err != nil {
		return err
	}

	color.Green("✓ %s %s × %d", line.Glyph, line.Name, line.Quantity)
	return nil
}

func cmdQty(ctx context.Context, sess *shop.Session, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: lemon qty <line> <n>")
	}
	lineID, err := parseLineID(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}

	if err := sess.SetQuantity(ctx, lineID, n); err != nil {
		return lineError(err, lineID)
	}
	color.Green("✓ Line %d set to %d", lineID, n)
	return nil
}

func cmdInc(ctx context.Context, sess *shop.Session, args []string) error {
	lineID, err := lineArg(args, "inc")
	if err != nil {
		return err
	}

	line, err := sess.Increase(ctx, lineID)
	if err != nil {
		return lineError(err, lineID)
	}
	color.Green("✓ %s %s × %d", line.Glyph, line.Name, line.Quantity)
	return nil
}

func cmdDec(ctx context.Context, sess *shop.Session, args []string) error {
	lineID, err := lineArg(args, "dec")
	if err != nil {
		return err
	}

	removed, err := sess.Decrease(ctx, lineID)
	if err != nil {
		return lineError(err, lineID)
	}
	if removed {
		color.Yellow("Line %d removed", lineID)
		return nil
	}
	color.Green("✓ Line %d decreased", lineID)
	return nil
}

func cmdRemove(ctx context.Context, sess *shop.Session, args []string) error {
	lineID, err := lineArg(args, "remove")
	if err != nil {
		return err
	}

	if err := sess.Remove(ctx, lineID); err != nil {
		return err
	}
	color.Yellow("Line %d removed", lineID)
	return nil
}

func cmdClear(ctx context.Context, sess *shop.Session) error {
	if err := sess.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Basket emptied.")
	return nil
}

func cmdCheckout(ctx context.Context, sess *shop.Session) error {
	order, err := sess.Checkout(ctx)
	if err != nil {
		return err
	}

	color.Green("✓ Order %d placed", order.ID)
	gray := color.New(color.FgHiBlack)
	gray.Printf("  receipt %s\n", order.Reference)
	fmt.Printf("  total %s\n", money(order.Total.StringFixed(2)))
	return nil
}

func cmdOrders(ctx context.Context, sess *shop.Session) error {
	orders, err := sess.Orders(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Orders")
	cyan.Println("  ------")

	if len(orders) == 0 {
		fmt.Println("  (no orders yet)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tRECEIPT\tPLACED\tSTATUS\tITEMS\tTOTAL")
	fmt.Fprintln(w, "  --\t-------\t------\t------\t-----\t-----")
	for _, o := range orders {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, truncate(o.Reference, 8), o.CreatedAt.Local().Format("Jan 02 15:04"),
			o.Status, summarize(o.Items), money(o.Total.StringFixed(2)))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdProfile prints the profile, or overwrites it when flags are given.
// Unspecified fields keep their current values.
func cmdProfile(ctx context.Context, sess *shop.Session, args []string) error {
	acct, err := sess.Profile(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printProfile(acct)
		return nil
	}

	update := &store.ProfileUpdate{
		FirstName:             acct.FirstName,
		LastName:              acct.LastName,
		Email:                 acct.Email,
		Phone:                 acct.Phone,
		Avatar:                acct.Avatar,
		NotifyOrderStatuses:   acct.NotifyOrderStatuses,
		NotifyPasswordChanges: acct.NotifyPasswordChanges,
		NotifySpecialOffers:   acct.NotifySpecialOffers,
		NotifyNewsletter:      acct.NotifyNewsletter,
	}
	var secret string

	for i := 0; i < len(args); i++ {
		flag := args[i]
		if i+1 >= len(args) {
			return fmt.Errorf("missing value for %s", flag)
		}
		value := args[i+1]
		i++

		var err error
		switch flag {
		case "--first":
			update.FirstName = value
		case "--last":
			update.LastName = value
		case "--email":
			update.Email = value
		case "--phone":
			update.Phone = value
		case "--avatar":
			if value == "" {
				update.Avatar = nil
			} else {
				update.Avatar = &value
			}
		case "--order-statuses":
			update.NotifyOrderStatuses, err = parseSwitch(value)
		case "--password-changes":
			update.NotifyPasswordChanges, err = parseSwitch(value)
		case "--special-offers":
			update.NotifySpecialOffers, err = parseSwitch(value)
		case "--newsletter":
			update.NotifyNewsletter, err = parseSwitch(value)
		case "--password":
			secret = value
		default:
			return fmt.Errorf("unknown profile flag %s", flag)
		}
		if err != nil {
			return err
		}
	}

	if err := sess.UpdateProfile(ctx, update); err != nil {
		return err
	}
	if secret != "" {
		if err := sess.ChangeSecret(ctx, secret); err != nil {
			return err
		}
	}

	color.Green("✓ Profile updated")
	return nil
}

func printProfile(acct *store.Account) {
	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Profile")
	cyan.Println("  -------")

	avatar := "(none)"
	if acct.Avatar != nil {
		avatar = *acct.Avatar
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Name\t%s %s\n", acct.FirstName, acct.LastName)
	fmt.Fprintf(w, "  Email\t%s\n", acct.Email)
	fmt.Fprintf(w, "  Phone\t%s\n", acct.Phone)
	fmt.Fprintf(w, "  Avatar\t%s\n", avatar)
	fmt.Fprintf(w, "  Order statuses\t%s\n", onOff(acct.NotifyOrderStatuses))
	fmt.Fprintf(w, "  Password changes\t%s\n", onOff(acct.NotifyPasswordChanges))
	fmt.Fprintf(w, "  Special offers\t%s\n", onOff(acct.NotifySpecialOffers))
	fmt.Fprintf(w, "  Newsletter\t%s\n", onOff(acct.NotifyNewsletter))
	fmt.Fprintf(w, "  Member since\t%s\n", acct.CreatedAt.Local().Format("Jan 02 2006"))
	w.Flush()
	fmt.Println()
}
