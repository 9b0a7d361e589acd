// ABOUTME: Small helpers for the lemon CLI: prompts, formatting and argument parsing
// ABOUTME: Also holds the interactive init flow that writes a starter config

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/2389/lemon-store/internal/store"
)

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("lemon configuration setup")
	fmt.Println("=========================")
	fmt.Println()

	defaultDataPath := getDataPath()

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Storage ---")
	dbPath := prompt(reader, "SQLite database path", filepath.Join(defaultDataPath, "lemon.db"))
	sessionPath := prompt(reader, "Session file path", filepath.Join(filepath.Dir(dbPath), "session.toml"))
	menuPath := prompt(reader, "Menu file (leave empty for the built-in menu)", "")

	fmt.Println("\n--- Logging ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "warn")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# lemon configuration\n")
	cfg.WriteString("# Generated by lemon init\n\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("  busy_timeout: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("session:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", sessionPath))
	cfg.WriteString("\n")

	if menuPath != "" {
		cfg.WriteString("catalog:\n")
		cfg.WriteString(fmt.Sprintf("  path: %q\n", menuPath))
		cfg.WriteString("\n")
	}

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo get started:")
	fmt.Println("  lemon register")
	fmt.Println("  lemon menu")

	return nil
}

func money(amount string) string {
	return "$" + amount
}

// truncate shortens s to at most n characters
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// summarize renders order items as "2× Greek Salad, 1× Bruschetta".
func summarize(items []store.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%d× %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, ", ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func parseLineID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid line number %q", s)
	}
	return id, nil
}

func lineArg(args []string, cmd string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: lemon %s <line>", cmd)
	}
	return parseLineID(args[0])
}

func lineError(err error, lineID int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no line %d in your basket (run: lemon basket)", lineID)
	}
	return err
}
