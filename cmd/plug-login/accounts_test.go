package main

import (
	"strings"
	"testing"
)

func TestLoadAccounts(t *testing.T) {
	path := writeTempFile(t, "accounts.txt", strings.Join([]string{
		"# batch accounts",
		"",
		"one@example.com:secret",
		"  two@example.com:pa:ss:word  ",
		"ONE@example.com:duplicate",
	}, "\n"))

	accounts, err := loadAccounts(path)
	if err != nil {
		t.Fatalf("loadAccounts() error = %v", err)
	}

	want := []Account{
		{Email: "one@example.com", Password: "secret"},
		{Email: "two@example.com", Password: "pa:ss:word"},
	}
	if len(accounts) != len(want) {
		t.Fatalf("loadAccounts() returned %d accounts, want %d: %+v", len(accounts), len(want), accounts)
	}
	for i := range want {
		if accounts[i] != want[i] {
			t.Errorf("accounts[%d] = %+v, want %+v", i, accounts[i], want[i])
		}
	}
}

func TestLoadAccountsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing password", "one@example.com:", ":1:"},
		{"no separator", "# header\none@example.com", ":2:"},
		{"empty", "# nothing here\n", "no accounts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "accounts.txt", tt.content)
			_, err := loadAccounts(path)
			if err == nil {
				t.Fatal("loadAccounts() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
