package emlhost

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/felo/reply-drafter/internal/host"
)

// messageIDDomain is the right-hand side of generated Message-IDs
const messageIDDomain = "reply-drafter.local"

// outgoing is a message to be written as an .eml file
type outgoing struct {
	From       *host.EmailAddress
	To         []host.EmailAddress
	Subject    string
	InReplyTo  string
	References []string
	Date       time.Time
	Body       string
	Coercion   host.Coercion
}

// writeMessage writes m into dir as <prefix>-<uuid>.eml and returns the path
func writeMessage(dir, prefix string, m outgoing) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	id := uuid.NewString()

	var h mail.Header
	h.SetDate(m.Date)
	h.SetSubject(m.Subject)
	h.SetMessageID(id + "@" + messageIDDomain)
	if m.From != nil && m.From.EmailAddress != "" {
		h.SetAddressList("From", []*mail.Address{toMailAddress(*m.From)})
	}
	if len(m.To) > 0 {
		to := make([]*mail.Address, 0, len(m.To))
		for _, addr := range m.To {
			to = append(to, toMailAddress(addr))
		}
		h.SetAddressList("To", to)
	}
	if m.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{m.InReplyTo})
	}
	if len(m.References) > 0 {
		h.SetMsgIDList("References", m.References)
	}

	contentType := "text/html"
	if m.Coercion == host.CoercionText {
		contentType = "text/plain"
	}
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	path := filepath.Join(dir, prefix+"-"+id+".eml")
	if err := writeFile(path, func(w io.Writer) error {
		return encodeMessage(w, h, m.Body)
	}); err != nil {
		return "", err
	}
	return path, nil
}

// encodeMessage writes a single-part message with header h and body to w
func encodeMessage(w io.Writer, h mail.Header, body string) error {
	mw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(mw, body); err != nil {
		mw.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}
	return nil
}

// writeFile creates path and fills it with write. The file is removed when
// write or the final close fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create message file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close message file: %w", err)
	}
	return nil
}

func toMailAddress(a host.EmailAddress) *mail.Address {
	return &mail.Address{Name: a.DisplayName, Address: a.EmailAddress}
}
