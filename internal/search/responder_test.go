package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"vault_bot/internal/session"
)

type fakeSession struct {
	sent []string
}

func (s *fakeSession) DownloadMedia(context.Context, *session.MediaRef) ([]byte, error) {
	return nil, nil
}

func (s *fakeSession) Send(_ context.Context, _ string, payload *session.OutgoingPayload) error {
	s.sent = append(s.sent, payload.Text)
	return nil
}

func (s *fakeSession) GetGroupInfo(context.Context, string) (*session.GroupInfo, error) {
	return nil, nil
}

func (s *fakeSession) IsConnected() bool { return true }

func quietEntry() *log.Entry {
	l := log.New()
	l.SetLevel(log.PanicLevel)
	return l.WithField("account", "test")
}

func TestQueryParsing(t *testing.T) {
	tests := []struct {
		name  string
		msg   *session.Message
		query string
		ok    bool
	}{
		{"nil message", nil, "", false},
		{"plain chat", &session.Message{Conversation: "hello there"}, "", false},
		{"command", &session.Message{Conversation: "!search dune"}, "dune", true},
		{"command with spaces", &session.Message{Conversation: "!search  the   matrix "}, "the   matrix", true},
		{"empty query", &session.Message{Conversation: "!search   "}, "", false},
		{"extended text command", &session.Message{ExtendedText: &session.ExtendedTextMessage{Text: "!search blade runner"}}, "blade runner", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, ok := Query(tt.msg)
			if ok != tt.ok || query != tt.query {
				t.Fatalf("Query() = (%q, %v), want (%q, %v)", query, ok, tt.query, tt.ok)
			}
		})
	}
}

func TestRespondRepliesWithResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"Dune","year":"2021"},{"title":"Dune: Part Two","year":"2024"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sess := &fakeSession{}
	r := NewResponder(client, sess, quietEntry())

	r.Respond(context.Background(), "me@s.whatsapp.net", "dune")

	if len(sess.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sess.sent))
	}
	reply := sess.sent[0]
	if !strings.Contains(reply, "1. Dune (2021)") || !strings.Contains(reply, "2. Dune: Part Two (2024)") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestRespondNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, 0)
	sess := &fakeSession{}
	NewResponder(client, sess, quietEntry()).Respond(context.Background(), "me@x", "obscure")

	if len(sess.sent) != 1 || !strings.Contains(sess.sent[0], "No results") {
		t.Fatalf("unexpected reply: %v", sess.sent)
	}
}

func TestRespondSearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, 0)
	sess := &fakeSession{}
	NewResponder(client, sess, quietEntry()).Respond(context.Background(), "me@x", "dune")

	if len(sess.sent) != 1 || !strings.Contains(sess.sent[0], "unavailable") {
		t.Fatalf("failure should produce a polite reply, got %v", sess.sent)
	}
}

func TestFormatResultsCapped(t *testing.T) {
	results := make([]Result, 8)
	for i := range results {
		results[i] = Result{Title: "t"}
	}
	out := formatResults("q", results)
	if strings.Contains(out, "6.") {
		t.Fatalf("result list must be capped at %d entries: %q", maxResults, out)
	}
}
