// ABOUTME: Entry point for the lemon command-line shop
// ABOUTME: Opens the local store, resumes the signed-in account and dispatches subcommands

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/lemon-store/internal/catalog"
	"github.com/2389/lemon-store/internal/config"
	"github.com/2389/lemon-store/internal/session"
	"github.com/2389/lemon-store/internal/shop"
	"github.com/2389/lemon-store/internal/store"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const banner = `
 _
| | ___ _ __ ___   ___  _ __
| |/ _ \ '_ ' _ \ / _ \| '_ \
| |  __/ | | | | | (_) | | | |
|_|\___|_| |_| |_|\___/|_| |_|
`

// getConfigPath returns the path to the lemon config file.
// Priority: LEMON_CONFIG env var > XDG_CONFIG_HOME/lemon/config.yaml > ~/.config/lemon/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LEMON_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lemon", "config.yaml")
}

// getDataPath returns the path to the lemon data directory.
// Priority: XDG_DATA_HOME/lemon > ~/.local/share/lemon
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "lemon")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = runInit()
	case "help", "-h", "--help":
		printUsage()
	case "version":
		fmt.Println(version)
	default:
		err = withApp(ctx, func(a *app) error {
			return a.dispatch(ctx, cmd, args)
		})
	}

	if err != nil {
		color.Red("Error: %v\n", describe(err))
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: lemon <command> [args]")
	fmt.Println()
	yellow.Println("Account:")
	fmt.Println("  init                     Create a config file interactively")
	fmt.Println("  register                 Create an account and sign in")
	fmt.Println("  login [email]            Sign in")
	fmt.Println("  logout                   Sign out")
	fmt.Println("  whoami                   Show the signed-in account")
	fmt.Println("  profile [--flag value]   Show or edit your profile")
	fmt.Println()
	yellow.Println("Shopping:")
	fmt.Println("  menu [category] [-q q]   Browse the menu")
	fmt.Println("  basket                   Show your basket")
	fmt.Println("  add <product>            Add one of a product")
	fmt.Println("  qty <line> <n>           Set a line's quantity")
	fmt.Println("  inc <line>               Add one to a line")
	fmt.Println("  dec <line>               Take one off a line")
	fmt.Println("  remove <line>            Remove a line")
	fmt.Println("  clear                    Empty the basket")
	fmt.Println("  checkout                 Place an order for the basket")
	fmt.Println("  orders                   Show past orders")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  LEMON_CONFIG             Config file (default: $XDG_CONFIG_HOME/lemon/config.yaml)")
	fmt.Println()
}

// app holds everything a command needs for one invocation.
type app struct {
	shop *shop.Shop
	menu *catalog.Menu
}

// withApp loads configuration, opens and initializes the store, and runs fn.
// A missing config file falls back to defaults under the data directory.
func withApp(ctx context.Context, fn func(*app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(setupLogger(cfg.Logging))

	st, err := store.Open(cfg.Database.Path, store.Options{BusyTimeout: cfg.Database.BusyTimeout})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}

	menu, err := loadMenu(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	keeper := session.NewKeeper(session.NewFileSlot(cfg.Session.Path))

	return fn(&app{
		shop: shop.New(st, keeper, menu),
		menu: menu,
	})
}

func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(getDataPath()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func loadMenu(path string) (*catalog.Menu, error) {
	if path == "" {
		return catalog.Default()
	}
	menu, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading menu: %w", err)
	}
	return menu, nil
}

// describe turns sentinel errors into messages for people.
func describe(err error) error {
	switch {
	case errors.Is(err, shop.ErrNoSession):
		return errors.New("not signed in (run: lemon login)")
	case errors.Is(err, store.ErrDuplicateContact):
		return errors.New("that email address is already registered")
	case errors.Is(err, store.ErrEmptyBasket):
		return errors.New("your basket is empty")
	case errors.Is(err, catalog.ErrUnknownProduct):
		return errors.New("no such product on the menu (run: lemon menu)")
	case errors.Is(err, store.ErrStorageFault):
		return fmt.Errorf("storage problem: %w", err)
	}
	return err
}
