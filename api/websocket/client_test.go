package websocket

import (
	"encoding/json"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

func testAddress(seed string) string {
	b := make([]byte, 20)
	copy(b, seed)
	return sdk.AccAddress(b).String()
}

func TestChannelAccess(t *testing.T) {
	owner := testAddress("borrower-1")
	other := testAddress("borrower-2")

	tests := []struct {
		name    string
		account string
		channel string
		want    bool
	}{
		{"pool is public", "", "pool", true},
		{"rates are public", "", "rates:1", true},
		{"prices are public", "", "prices:1", true},
		{"liquidations are public", "", "liquidations:1", true},
		{"positions denied anonymous", "", "positions:" + owner, false},
		{"positions allowed for owner", owner, "positions:" + owner, true},
		{"positions denied for other account", other, "positions:" + owner, false},
		{"unknown channel denied", owner, "orders:1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(nil, nil, "c1", tt.account, "127.0.0.1")
			if got := c.canAccessChannel(tt.channel); got != tt.want {
				t.Errorf("canAccessChannel(%q) = %v, want %v", tt.channel, got, tt.want)
			}
		})
	}
}

func TestAuthBindsAccount(t *testing.T) {
	addr := testAddress("borrower-1")

	c := NewClient(nil, nil, "c1", "", "127.0.0.1")
	c.handleAuth(json.RawMessage(`{"address":"` + addr + `"}`))

	if c.account != addr {
		t.Fatalf("account = %q, want %q", c.account, addr)
	}

	var resp struct {
		Type string `json:"type"`
	}
	select {
	case msg := <-c.send:
		if err := json.Unmarshal(msg, &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	default:
		t.Fatal("no response sent")
	}
	if resp.Type != "authenticated" {
		t.Errorf("response type = %q, want authenticated", resp.Type)
	}

	if !c.canAccessChannel("positions:" + addr) {
		t.Error("authenticated client denied its own positions channel")
	}
}

func TestAuthRejectsInvalidAddress(t *testing.T) {
	c := NewClient(nil, nil, "c1", "", "127.0.0.1")
	c.handleAuth(json.RawMessage(`{"address":"not-an-address"}`))

	if c.account != "" {
		t.Fatalf("account = %q, want empty", c.account)
	}

	var resp struct {
		Type string `json:"type"`
	}
	select {
	case msg := <-c.send:
		if err := json.Unmarshal(msg, &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	default:
		t.Fatal("no response sent")
	}
	if resp.Type != "error" {
		t.Errorf("response type = %q, want error", resp.Type)
	}
}
