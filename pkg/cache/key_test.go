package cache

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "simple pair",
			key:  Key{Symbol: "eth", Quote: "usdt"},
			want: "price:eth:usdt",
		},
		{
			name: "btc usd",
			key:  Key{Symbol: "btc", Quote: "usd"},
			want: "price:btc:usd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewKey_Normalizes(t *testing.T) {
	key := NewKey(" ETH ", "Usdt")
	if key.Symbol != "eth" || key.Quote != "usdt" {
		t.Errorf("NewKey did not normalize: %+v", key)
	}
}

func TestParsePair(t *testing.T) {
	tests := []struct {
		pair    string
		want    Key
		wantErr bool
	}{
		{pair: "eth-usdt", want: Key{Symbol: "eth", Quote: "usdt"}},
		{pair: "BTC-USD", want: Key{Symbol: "btc", Quote: "usd"}},
		{pair: "  sol-eur ", want: Key{Symbol: "sol", Quote: "eur"}},
		{pair: "ethusdt", wantErr: true},
		{pair: "eth-", wantErr: true},
		{pair: "-usdt", wantErr: true},
		{pair: "eth-usdt-extra", wantErr: true},
		{pair: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pair, func(t *testing.T) {
			got, err := ParsePair(tt.pair)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePair(%q) expected error, got %+v", tt.pair, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePair(%q) failed: %v", tt.pair, err)
			}
			if got != tt.want {
				t.Errorf("ParsePair(%q) = %+v, want %+v", tt.pair, got, tt.want)
			}
		})
	}
}

func TestKey_Pair(t *testing.T) {
	key := Key{Symbol: "eth", Quote: "usdt"}
	if got := key.Pair(); got != "eth-usdt" {
		t.Errorf("Pair() = %q, want eth-usdt", got)
	}
}
