package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	pluglogin "github.com/miniplug/plug-login"
)

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

type resultOutput struct {
	Email   string `json:"email,omitempty"`
	Session string `json:"session,omitempty"`
	Cookie  string `json:"cookie,omitempty"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func newResultOutput(email string, res *pluglogin.Result, err error) resultOutput {
	out := resultOutput{Email: email}
	if err != nil {
		out.Error = err.Error()
		if kind := pluglogin.KindOf(err); kind != "" {
			out.Kind = string(kind)
		}
		return out
	}
	if res != nil {
		out.Session = res.Session
		out.Cookie = res.Cookie
		out.Token = res.Token
	}
	return out
}

func writeJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func printResult(w io.Writer, format string, res *pluglogin.Result) error {
	if format == "json" {
		return writeJSONLine(w, newResultOutput("", res, nil))
	}
	if _, err := fmt.Fprintf(w, "cookie: %s\n", res.Cookie); err != nil {
		return err
	}
	if res.Token != "" {
		_, err := fmt.Fprintf(w, "token:  %s\n", res.Token)
		return err
	}
	return nil
}

func printToken(w io.Writer, format string, token string) error {
	if format == "json" {
		return writeJSONLine(w, resultOutput{Token: token})
	}
	_, err := fmt.Fprintln(w, token)
	return err
}

type batchSummary struct {
	succeeded int
	failed    int
	fatal     error
}

// err reports a fatal stop, failed logins, or accounts that never got a
// result.
func (b batchSummary) err(total int) error {
	if b.fatal != nil {
		return fmt.Errorf("aborted after %d successful logins: %w", b.succeeded, b.fatal)
	}
	if b.failed > 0 {
		return fmt.Errorf("%d of %d logins failed", b.failed, total)
	}
	if done := b.succeeded + b.failed; done < total {
		return fmt.Errorf("only %d of %d accounts were processed", done, total)
	}
	return nil
}

// collectResults drains results until the scheduler closes the channel,
// printing one line per account.
func collectResults(w io.Writer, format string, results <-chan TaskResult, total int) batchSummary {
	var summary batchSummary
	done := 0

	for r := range results {
		if r.Fatal {
			summary.fatal = r.Error
			continue
		}

		done++
		if r.Error != nil {
			summary.failed++
		} else {
			summary.succeeded++
		}

		if format == "json" {
			_ = writeJSONLine(w, newResultOutput(r.Email, r.Result, r.Error))
			continue
		}
		if r.Error != nil {
			fmt.Fprintf(w, "[%d/%d] FAIL %s: %v\n", done, total, r.Email, r.Error)
		} else {
			fmt.Fprintf(w, "[%d/%d] OK   %s %s\n", done, total, r.Email, r.Result.Cookie)
		}
	}

	return summary
}
