// Package emlhost implements the host item surfaces on top of .eml files, so the
// reply pipeline can run from the command line.
package emlhost

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	"github.com/felo/reply-drafter/internal/host"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// Message is the part of an .eml file the host surfaces need
type Message struct {
	MessageID  string
	References []string
	Subject    string
	Sender     *host.EmailAddress
	Recipients []host.EmailAddress
	Date       time.Time
	BodyText   string
	BodyHTML   string
}

// ParseFile parses an .eml file
func ParseFile(filePath string) (*Message, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse parses a message from a reader
func Parse(r io.Reader) (*Message, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	msg := &Message{}
	header := mr.Header

	if id, err := header.MessageID(); err == nil {
		msg.MessageID = id
	}
	if refs, err := header.MsgIDList("References"); err == nil {
		msg.References = refs
	}

	// Subject - decode MIME words
	msg.Subject = decodeMIMEWord(header.Get("Subject"))

	if fromAddrs, err := header.AddressList("From"); err == nil && len(fromAddrs) > 0 {
		msg.Sender = &host.EmailAddress{
			DisplayName:  fromAddrs[0].Name,
			EmailAddress: fromAddrs[0].Address,
		}
	}

	if toAddrs, err := header.AddressList("To"); err == nil {
		for _, addr := range toAddrs {
			msg.Recipients = append(msg.Recipients, host.EmailAddress{
				DisplayName:  addr.Name,
				EmailAddress: addr.Address,
			})
		}
	}

	// A missing date stays zero; the mailbox clock fills it in.
	if date, err := header.Date(); err == nil {
		msg.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			// Attachments are not part of the reply context
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			if msg.BodyText == "" {
				msg.BodyText = string(body)
			}
		case strings.HasPrefix(contentType, "text/html"):
			msg.BodyHTML = string(body)
		}
	}

	return msg, nil
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
