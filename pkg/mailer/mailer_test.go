package mailer

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"go.uber.org/zap"
)

// fakeSMTP is a minimal plaintext SMTP server accepting a single session.
type fakeSMTP struct {
	addr        string
	rejectRcpt  bool
	failAuth    bool
	mu          sync.Mutex
	rcpt        string
	data        string
	sessionDone chan struct{}
}

func startFakeSMTP(t *testing.T, rejectRcpt, failAuth bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	s := &fakeSMTP{addr: ln.Addr().String(), rejectRcpt: rejectRcpt, failAuth: failAuth, sessionDone: make(chan struct{})}
	go func() {
		defer close(s.sessionDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		s.serve(textproto.NewConn(conn))
	}()
	return s
}

func (s *fakeSMTP) serve(tp *textproto.Conn) {
	_ = tp.PrintfLine("220 localhost ESMTP fake")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			_ = tp.PrintfLine("250-localhost")
			if s.failAuth {
				_ = tp.PrintfLine("250-AUTH PLAIN")
			}
			_ = tp.PrintfLine("250 8BITMIME")
		case strings.HasPrefix(cmd, "AUTH"):
			_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			if s.rejectRcpt {
				_ = tp.PrintfLine("550 5.1.1 mailbox unavailable")
				continue
			}
			s.mu.Lock()
			s.rcpt = line
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case cmd == "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = string(body)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK queued")
		case cmd == "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

func newTestMailer(addr string) *Mailer {
	host, port, _ := net.SplitHostPort(addr)
	return New(Config{
		Host:     host,
		Port:     port,
		Username: "resend",
		APIKey:   "re_test",
		From:     "alerts@deadlinemind.app",
	}, zap.NewNop())
}

func TestSendVehicleReport(t *testing.T) {
	srv := startFakeSMTP(t, false, false)
	m := newTestMailer(srv.addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := m.SendVehicleReport(ctx, model.EmailRecipient{Email: "asha@example.com", Name: "Asha"}, "<p>hello</p>", "Vehicle Tax Expiry Reminder: Swift")
	if err != nil {
		t.Fatalf("SendVehicleReport() error = %v", err)
	}
	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@deadlinemind.app>") {
		t.Errorf("unexpected message id %q", id)
	}

	<-srv.sessionDone
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if !strings.Contains(srv.rcpt, "asha@example.com") {
		t.Errorf("RCPT = %q", srv.rcpt)
	}
	for _, want := range []string{
		"Subject: Vehicle Tax Expiry Reminder: Swift",
		`From: "DeadlineMind" <alerts@deadlinemind.app>`,
		"Message-ID: " + id,
		"<p>hello</p>",
	} {
		if !strings.Contains(srv.data, want) {
			t.Errorf("message missing %q:\n%s", want, srv.data)
		}
	}
}

func TestSendVehicleReportRejectedRecipientIsTransient(t *testing.T) {
	srv := startFakeSMTP(t, true, false)
	m := newTestMailer(srv.addr)

	_, err := m.SendVehicleReport(context.Background(), model.EmailRecipient{Email: "nobody@example.com"}, "<p>x</p>", "s")
	if err == nil {
		t.Fatal("expected an error")
	}
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Errorf("kind = %v, want transient", apperr.KindOf(err))
	}
}

func TestSendVehicleReportBadCredentialsIsConfiguration(t *testing.T) {
	srv := startFakeSMTP(t, false, true)
	m := newTestMailer(srv.addr)

	_, err := m.SendVehicleReport(context.Background(), model.EmailRecipient{Email: "asha@example.com"}, "<p>x</p>", "s")
	if !apperr.IsConfiguration(err) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestAvailable(t *testing.T) {
	m := New(Config{Host: "smtp.resend.com"}, zap.NewNop())

	err := m.Available()
	if !apperr.IsConfiguration(err) {
		t.Fatalf("Available() = %v, want configuration error", err)
	}
	for _, v := range []string{"EMAIL_API_KEY", "EMAIL_FROM_ADDRESS"} {
		if !strings.Contains(err.Error(), v) {
			t.Errorf("error %q does not name %s", err, v)
		}
	}

	if _, err := m.SendVehicleReport(context.Background(), model.EmailRecipient{Email: "a@b.c"}, "", ""); !apperr.IsConfiguration(err) {
		t.Errorf("SendVehicleReport() on unconfigured mailer = %v, want configuration error", err)
	}
}
