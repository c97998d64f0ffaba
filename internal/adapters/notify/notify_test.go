package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"reviewhound/internal/domain"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func TestNew_WithoutHostLogsOnly(t *testing.T) {
	n := New(SMTPConfig{})
	if _, ok := n.(LogNotifier); !ok {
		t.Fatalf("expected LogNotifier, got %T", n)
	}
	if err := n.Send(context.Background(), "ops@acme.test", domain.Notification{Subject: "s"}); err != nil {
		t.Fatal(err)
	}
}

func TestSMTPNotifier_Send(t *testing.T) {
	var got capturedMail
	n := New(SMTPConfig{Host: "mail.acme.test", Username: "u", Password: "p", From: "hound@acme.test"}).(*SMTPNotifier)
	n.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got = capturedMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)}
		return nil
	}

	err := n.Send(context.Background(), "ops@acme.test", domain.Notification{
		Subject: "[Review Hound] 1.0★ review for Acme on bbb",
		Body:    "line one\nline two",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.addr != "mail.acme.test:587" || got.from != "hound@acme.test" || len(got.to) != 1 || got.to[0] != "ops@acme.test" {
		t.Fatalf("envelope = %+v", got)
	}
	if got.auth == nil {
		t.Fatal("expected auth with username set")
	}
	for _, want := range []string{"To: ops@acme.test\r\n", "Subject: =?utf-8?q?", "\r\n\r\nline one\r\nline two"} {
		if !strings.Contains(got.msg, want) {
			t.Fatalf("message missing %q:\n%s", want, got.msg)
		}
	}
}

func TestSMTPNotifier_Errors(t *testing.T) {
	n := New(SMTPConfig{Host: "mail.acme.test", Port: 25}).(*SMTPNotifier)
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 try later") }

	if err := n.Send(context.Background(), "ops@acme.test", domain.Notification{}); err == nil || !strings.Contains(err.Error(), "421") {
		t.Fatalf("err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Send(ctx, "ops@acme.test", domain.Notification{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
