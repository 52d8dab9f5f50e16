package main

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	pluglogin "github.com/miniplug/plug-login"
	"github.com/miniplug/plug-login/plugtest"
)

func discardLogger() pluglogin.Logger {
	return pluglogin.NewStdLogger(log.New(io.Discard, "", 0))
}

func stubOptions(srv *plugtest.Server) *pluglogin.Options {
	return &pluglogin.Options{Host: plugtest.Host, Client: srv.Client()}
}

func TestSchedulerRun(t *testing.T) {
	srv := plugtest.NewServer()
	accounts := []Account{
		{Email: "a@example.com", Password: "pa"},
		{Email: "b@example.com", Password: "pb"},
		{Email: "c@example.com", Password: "pc"},
		{Email: "d@example.com", Password: "wrong"},
	}
	for _, a := range accounts[:3] {
		srv.AddUser(a.Email, a.Password)
	}
	srv.AddUser("d@example.com", "pd")

	s := NewScheduler(2, stubOptions(srv), nil, 0, discardLogger())
	if s.WorkerCount() != 2 {
		t.Fatalf("WorkerCount() = %d, want 2", s.WorkerCount())
	}

	results := make(map[string]TaskResult)
	for r := range s.Run(context.Background(), accounts) {
		if r.Fatal {
			t.Fatalf("unexpected fatal result: %v", r.Error)
		}
		results[r.Email] = r
	}

	if len(results) != len(accounts) {
		t.Fatalf("got %d results, want %d", len(results), len(accounts))
	}
	for _, a := range accounts[:3] {
		r := results[a.Email]
		if r.Error != nil {
			t.Errorf("%s: unexpected error %v", a.Email, r.Error)
			continue
		}
		if r.Result.Session == "" {
			t.Errorf("%s: empty session", a.Email)
		}
	}
	if kind := pluglogin.KindOf(results["d@example.com"].Error); kind != pluglogin.KindLogin {
		t.Errorf("wrong password kind = %q, want %q", kind, pluglogin.KindLogin)
	}
	if n := srv.Hits(plugtest.LoginPath); n != len(accounts) {
		t.Errorf("login endpoint hit %d times, want %d", n, len(accounts))
	}
}

func TestSchedulerStopsOnMaintenance(t *testing.T) {
	srv := plugtest.NewServer()
	srv.SetMaintenance(true)

	var accounts []Account
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"} {
		accounts = append(accounts, Account{Email: email, Password: "x"})
	}

	s := NewScheduler(1, stubOptions(srv), nil, 0, discardLogger())

	var fatal []TaskResult
	var other int
	for r := range s.Run(context.Background(), accounts) {
		if r.Fatal {
			fatal = append(fatal, r)
		} else {
			other++
		}
	}

	if len(fatal) != 1 {
		t.Fatalf("got %d fatal results, want 1", len(fatal))
	}
	if !pluglogin.IsMaintenance(s.Err()) {
		t.Errorf("Err() = %v, want maintenance", s.Err())
	}
	if !pluglogin.IsMaintenance(fatal[0].Error) {
		t.Errorf("fatal error = %v, want maintenance", fatal[0].Error)
	}
	if other != 0 {
		t.Errorf("got %d results after the fatal error, want 0", other)
	}
	if n := srv.Hits(plugtest.InitPath); n != 1 {
		t.Errorf("init endpoint hit %d times, want 1", n)
	}
}

func TestSchedulerCancelled(t *testing.T) {
	srv := plugtest.NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduler(2, stubOptions(srv), nil, 0, discardLogger())
	for r := range s.Run(ctx, []Account{{Email: "a@example.com", Password: "x"}}) {
		if r.Error == nil {
			t.Errorf("%s: login succeeded on a cancelled context", r.Email)
		}
	}
}

func TestSchedulerFatalResultSurvivesFullChannel(t *testing.T) {
	s := NewScheduler(1, stubOptions(plugtest.NewServer()), nil, 0, discardLogger())
	for i := 0; i < cap(s.resultsChan); i++ {
		s.resultsChan <- TaskResult{Email: "queued@example.com"}
	}

	fatalErr := &pluglogin.Error{Kind: pluglogin.KindMaintenance, Message: "down"}
	done := make(chan struct{})
	go func() {
		s.handleFatalError("late@example.com", fatalErr)
		close(done)
	}()

	var last TaskResult
	for i := 0; i <= cap(s.resultsChan); i++ {
		last = <-s.resultsChan
	}
	<-done

	if !last.Fatal || last.Email != "late@example.com" {
		t.Fatalf("last result = %+v, want the fatal one", last)
	}
	if !errors.Is(s.Err(), pluglogin.ErrMaintenance) {
		t.Errorf("Err() = %v, want maintenance", s.Err())
	}
}
