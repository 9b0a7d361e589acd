// Package shop is the API the UI layer and the CLI call.
//
// A Shop is created once per process from an initialized store, a session
// keeper and a catalog. Register, Login and Resume return a *Session handle
// bound to one account; every basket, order and profile call goes through that
// handle, so there is no ambient "current account":
//
//	sess, err := sh.Login(ctx, "tilly@example.com", secret)
//	if err != nil { ... }
//	sess.Add(ctx, "greek-salad")
//	order, err := sess.Checkout(ctx)
//
// Decrease applies the "below one removes the line" rule; the store itself
// never deletes a line because of its quantity.
package shop
