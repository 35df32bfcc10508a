package report

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/fundscope/fundscope/pkg/config"
)

// Email is a fully composed digest message before MIME encoding.
type Email struct {
	Subject        string
	Text           string
	HTML           string
	Attachment     []byte
	AttachmentName string
}

// Sender delivers digest emails over SMTP with implicit TLS, or writes preview
// files in dry-run mode.
type Sender struct {
	cfg config.SMTPConfig
}

// NewSender creates an SMTP sender.
func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Build encodes the message as multipart/mixed with a text+html alternative
// part and the CSV attachment.
func (s *Sender) Build(e Email) ([]byte, error) {
	var buf bytes.Buffer

	mixed := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(s.cfg.To, ", "))
	if len(s.cfg.CC) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(s.cfg.CC, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	// alternative part: plain text + html
	altHeader := textproto.MIMEHeader{}
	altBuf := &bytes.Buffer{}
	alt := multipart.NewWriter(altBuf)
	altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary()))

	textPart, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	fmt.Fprintf(textPart, "%s\r\n", e.Text)

	htmlPart, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("create html part: %w", err)
	}
	fmt.Fprintf(htmlPart, "%s\r\n", e.HTML)

	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("close alternative part: %w", err)
	}

	altWriter, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, fmt.Errorf("create mixed part: %w", err)
	}
	if _, err := altWriter.Write(altBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("write alternative part: %w", err)
	}

	// csv attachment
	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", "text/csv; charset=utf-8")
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.AttachmentName))
	attWriter, err := mixed.CreatePart(attHeader)
	if err != nil {
		return nil, fmt.Errorf("create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(e.Attachment)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		fmt.Fprintf(attWriter, "%s\r\n", encoded[:n])
		encoded = encoded[n:]
	}

	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

// Send delivers the raw message over implicit TLS with a few retries, SMTP
// servers throttle and hiccup routinely.
func (s *Sender) Send(ctx context.Context, raw []byte) error {
	retrier := repeater.NewBackoff(3, 2*time.Second, repeater.WithMaxDelay(10*time.Second))

	return retrier.Do(ctx, func() error {
		if err := s.sendOnce(raw); err != nil {
			lgr.Printf("[WARN] smtp send attempt failed: %v", err)
			return err
		}
		return nil
	})
}

func (s *Sender) sendOnce(raw []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range append(append([]string{}, s.cfg.To...), s.cfg.CC...) {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

// WritePreview writes the HTML body, the full message envelope and the CSV to
// local files instead of sending anything. Returns the written paths.
func WritePreview(dir string, today time.Time, html string, raw, csvData []byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}

	base := "preview_week_" + today.Format("2006-01-02")
	files := map[string][]byte{
		base + ".html": []byte(html),
		base + ".eml":  raw,
		base + ".csv":  csvData,
	}

	paths := make([]string, 0, len(files))
	for _, name := range []string{base + ".html", base + ".eml", base + ".csv"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil { //nolint:gosec // preview files are not sensitive
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
