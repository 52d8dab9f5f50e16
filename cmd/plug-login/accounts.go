package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Account is one set of credentials for the batch command.
type Account struct {
	Email    string
	Password string
}

// loadAccounts reads "email:password" lines from filename. Blank lines and
// lines starting with # are skipped. The password may itself contain ':'.
func loadAccounts(filename string) ([]Account, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer file.Close()

	var accounts []Account
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		email, password, ok := strings.Cut(line, ":")
		email = strings.TrimSpace(email)
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("%s:%d: expected email:password", filename, lineNum)
		}

		lower := strings.ToLower(email)
		if seen[lower] {
			continue
		}
		seen[lower] = true

		accounts = append(accounts, Account{Email: email, Password: password})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading accounts file: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found in %s", filename)
	}

	return accounts, nil
}
