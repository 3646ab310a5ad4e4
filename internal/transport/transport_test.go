package transport

import (
	"context"
	"errors"
	"testing"

	"vault_bot/internal/session"
)

type nopSession struct{}

func (nopSession) DownloadMedia(context.Context, *session.MediaRef) ([]byte, error) {
	return nil, nil
}
func (nopSession) Send(context.Context, string, *session.OutgoingPayload) error { return nil }
func (nopSession) GetGroupInfo(context.Context, string) (*session.GroupInfo, error) {
	return nil, nil
}
func (nopSession) IsConnected() bool { return false }

type fakeDriver struct {
	accountID string
}

func (d *fakeDriver) Connect(_ context.Context, accountID string, _ EventSink) (session.ChatSession, error) {
	d.accountID = accountID
	return nopSession{}, nil
}

func TestConnectWithoutDriver(t *testing.T) {
	Register(nil)
	if _, err := Connect(context.Background(), "acct1", nil); !errors.Is(err, ErrNoDriver) {
		t.Fatalf("expected ErrNoDriver, got %v", err)
	}
}

func TestConnectUsesRegisteredDriver(t *testing.T) {
	d := &fakeDriver{}
	Register(d)
	defer Register(nil)

	sess, err := Connect(context.Background(), "acct1", nil)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if sess == nil {
		t.Fatalf("expected a session")
	}
	if d.accountID != "acct1" {
		t.Fatalf("driver got account %q", d.accountID)
	}
}
