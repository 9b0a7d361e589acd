// Package catalog provides the product menu that baskets are filled from.
//
// A menu file lists categories and items. Prices are quoted strings so they are
// read as exact decimals:
//
//	categories: [Starters, Drinks]
//	items:
//	  - id: lemonade
//	    name: Lemonade
//	    category: Drinks
//	    price: "4.50"
//	    glyph: "🍋"
//
// The built-in menu is embedded from menu.yaml and used when no file is configured.
package catalog
