package emlhost

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleEML = `From: Ana Lima <ana@example.com>
To: me@example.com, Bob <bob@example.com>
Subject: Invoice 42
Date: Mon, 1 Jan 2024 10:00:00 +0000
Message-ID: <inv42@example.com>
References: <root@example.com>
Content-Type: text/plain; charset=utf-8

Please find the invoice attached.
`

const htmlEML = `From: sender@example.com
To: recipient@example.com
Subject: HTML Email Test
Date: Mon, 1 Jan 2024 10:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

This is the plain text version.
--b1
Content-Type: text/html; charset=utf-8

<html><body><h1>This is an HTML email</h1></body></html>
--b1--
`

// writeEML writes content into a temp .eml file and returns its path
func writeEML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "message.eml")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(content, "\n", "\r\n")), 0644))
	return path
}

// TestParse_SimpleEmail tests parsing a basic plain text email
func TestParse_SimpleEmail(t *testing.T) {
	msg, err := ParseFile(writeEML(t, simpleEML))
	require.NoError(t, err)

	assert.Equal(t, "Invoice 42", msg.Subject)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Ana Lima", msg.Sender.DisplayName)
	assert.Equal(t, "ana@example.com", msg.Sender.EmailAddress)
	require.Len(t, msg.Recipients, 2)
	assert.Equal(t, "me@example.com", msg.Recipients[0].EmailAddress)
	assert.Equal(t, "Bob", msg.Recipients[1].DisplayName)
	assert.Equal(t, "inv42@example.com", msg.MessageID)
	assert.Equal(t, []string{"root@example.com"}, msg.References)
	assert.True(t, msg.Date.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.Contains(t, msg.BodyText, "Please find the invoice attached.")
	assert.Empty(t, msg.BodyHTML)
}

// TestParse_HTMLEmail tests parsing emails with both HTML and plain text
func TestParse_HTMLEmail(t *testing.T) {
	msg, err := ParseFile(writeEML(t, htmlEML))
	require.NoError(t, err)

	assert.Contains(t, msg.BodyText, "plain text version")
	assert.Contains(t, msg.BodyHTML, "<h1>This is an HTML email</h1>")
}

// TestParse_MissingHeaders tests that optional headers stay empty
func TestParse_MissingHeaders(t *testing.T) {
	msg, err := Parse(strings.NewReader("From: sender@example.com\r\nSubject: Missing Headers Test\r\n\r\nBody missing some headers.\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "Missing Headers Test", msg.Subject)
	assert.Empty(t, msg.MessageID)
	assert.Empty(t, msg.Recipients)
	assert.True(t, msg.Date.IsZero())
	assert.Contains(t, msg.BodyText, "missing some headers")
}

// TestParseFile_InvalidFile tests error handling for non-existent files
func TestParseFile_InvalidFile(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "does-not-exist.eml"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

// TestDecodeMIMEWord tests the MIME word decoder function
func TestDecodeMIMEWord(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "UTF-8 Quoted-Printable",
			input:    "=?UTF-8?Q?Invitaci=C3=B3n?=",
			expected: "Invitación",
		},
		{
			name:     "UTF-8 Base64",
			input:    "=?UTF-8?B?SW52aXRhY2nDs24=?=",
			expected: "Invitación",
		},
		{
			name:     "Plain text (no encoding)",
			input:    "Simple Subject",
			expected: "Simple Subject",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeMIMEWord(tt.input))
		})
	}
}
