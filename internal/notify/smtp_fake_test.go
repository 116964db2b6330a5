package notify

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeSMTP is a minimal submission server that speaks STARTTLS and AUTH PLAIN
type fakeSMTP struct {
	addr      string
	user      string
	password  string
	noTLS     bool
	rejectTo  bool
	serverTLS *tls.Config
	clientTLS *tls.Config

	mu       sync.Mutex
	authed   bool
	rcpt     string
	data     string
	commands []string
	done     chan struct{}
}

func (f *fakeSMTP) snapshot() (authed bool, rcpt, data string, commands []string) {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed, f.rcpt, f.data, append([]string(nil), f.commands...)
}

func testTLSConfigs(t *testing.T) (*tls.Config, *tls.Config) {
	t.Helper()
	srv := httptest.NewUnstartedServer(nil)
	srv.StartTLS()
	serverTLS := &tls.Config{Certificates: srv.TLS.Certificates}
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	srv.Close()
	return serverTLS, &tls.Config{RootCAs: pool}
}

func startFakeSMTP(t *testing.T, configure func(*fakeSMTP)) *fakeSMTP {
	t.Helper()

	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen smtp: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	serverTLS, clientTLS := testTLSConfigs(t)
	f := &fakeSMTP{
		addr:      listener.Addr().String(),
		user:      "me@example.com",
		password:  "secret",
		serverTLS: serverTLS,
		clientTLS: clientTLS,
		done:      make(chan struct{}),
	}
	if configure != nil {
		configure(f)
	}

	go f.serve(listener)
	return f
}

func (f *fakeSMTP) serve(listener net.Listener) {
	defer close(f.done)
	conn, err := listener.Accept()
	if err != nil {
		return
	}
	defer func() { conn.Close() }()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	secure := false

	writeLine := func(line string) {
		_, _ = writer.WriteString(line + "\r\n")
		_ = writer.Flush()
	}

	writeLine("220 localhost ESMTP")

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(line)

		f.mu.Lock()
		f.commands = append(f.commands, verb(upper))
		f.mu.Unlock()

		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			writeLine("250-localhost")
			if !secure && !f.noTLS {
				writeLine("250-STARTTLS")
			}
			if secure {
				writeLine("250-AUTH PLAIN")
			}
			writeLine("250 8BITMIME")
		case strings.HasPrefix(upper, "STARTTLS"):
			writeLine("220 Ready to start TLS")
			tlsConn := tls.Server(conn, f.serverTLS)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			reader = bufio.NewReader(conn)
			writer = bufio.NewWriter(conn)
			secure = true
		case strings.HasPrefix(upper, "AUTH PLAIN"):
			parts := strings.Fields(line)
			decoded, _ := base64.StdEncoding.DecodeString(parts[len(parts)-1])
			fields := strings.Split(string(decoded), "\x00")
			if len(fields) == 3 && fields[1] == f.user && fields[2] == f.password {
				f.mu.Lock()
				f.authed = true
				f.mu.Unlock()
				writeLine("235 2.7.0 Authentication successful")
			} else {
				writeLine("535 5.7.8 Authentication credentials invalid")
			}
		case strings.HasPrefix(upper, "MAIL FROM:"):
			writeLine("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			if f.rejectTo {
				writeLine("550 5.1.1 No such user")
				continue
			}
			f.mu.Lock()
			f.rcpt = strings.TrimSpace(line[len("RCPT TO:"):])
			f.mu.Unlock()
			writeLine("250 OK")
		case strings.HasPrefix(upper, "DATA"):
			writeLine("354 End data with <CR><LF>.<CR><LF>")
			var dataLines []string
			for {
				dataLine, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				dataLine = strings.TrimRight(dataLine, "\r\n")
				if dataLine == "." {
					break
				}
				dataLines = append(dataLines, dataLine)
			}
			f.mu.Lock()
			f.data = strings.Join(dataLines, "\n")
			f.mu.Unlock()
			writeLine("250 OK queued")
		case strings.HasPrefix(upper, "QUIT"):
			writeLine("221 Bye")
			return
		default:
			writeLine("501 Syntax error")
		}
	}
}

func verb(line string) string {
	if fields := strings.Fields(line); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
