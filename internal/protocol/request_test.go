package protocol

import (
	"bytes"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want Request
	}{
		{
			name: "relay on",
			buf:  []byte("GET /h1"),
			want: Request{Kind: KindRelayCommand, Channel: 1, Level: true},
		},
		{
			name: "relay off with trailer",
			buf:  []byte("GET /l3\r\n\r\n"),
			want: Request{Kind: KindRelayCommand, Channel: 3, Level: false},
		},
		{
			name: "channel out of range is passed through",
			buf:  []byte("GET /h7 HTTP/1.1\r\n"),
			want: Request{Kind: KindRelayCommand, Channel: 7, Level: true},
		},
		{
			name: "non-digit channel uses raw offset",
			buf:  []byte("GET /ha"),
			want: Request{Kind: KindRelayCommand, Channel: 'a' - '0', Level: true},
		},
		{
			name: "status",
			buf:  []byte("GET /j"),
			want: Request{Kind: KindStatus},
		},
		{
			name: "status with path",
			buf:  []byte("GET /json HTTP/1.1\r\n"),
			want: Request{Kind: KindStatus},
		},
		{
			name: "bare prefix is page",
			buf:  []byte("GET /"),
			want: Request{Kind: KindPage},
		},
		{
			name: "single selector byte is page",
			buf:  []byte("GET /h"),
			want: Request{Kind: KindPage},
		},
		{
			name: "unknown selector",
			buf:  []byte("GET /x1"),
			want: Request{Kind: KindInvalidCommand},
		},
		{
			name: "browser root request",
			buf:  []byte("GET / HTTP/1.1\r\nHost: board\r\n\r\n"),
			want: Request{Kind: KindInvalidCommand},
		},
		{
			name: "empty",
			buf:  nil,
			want: Request{Kind: KindMalformed},
		},
		{
			name: "too short",
			buf:  []byte("GET "),
			want: Request{Kind: KindMalformed},
		},
		{
			name: "not GET",
			buf:  []byte("POST /h1"),
			want: Request{Kind: KindMalformed},
		},
		{
			name: "lowercase method",
			buf:  []byte("get /h1"),
			want: Request{Kind: KindMalformed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.buf)
			if got != tt.want {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.buf, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    string
		wantErr bool
	}{
		{"status", Request{Kind: KindStatus}, "GET /j\r\n\r\n", false},
		{"on", Request{Kind: KindRelayCommand, Channel: 1, Level: true}, "GET /h1\r\n\r\n", false},
		{"off", Request{Kind: KindRelayCommand, Channel: 4}, "GET /l4\r\n\r\n", false},
		{"page", Request{Kind: KindPage}, "GET /", false},
		{"two digit channel", Request{Kind: KindRelayCommand, Channel: 12}, "", true},
		{"malformed", Request{Kind: KindMalformed}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Encode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeAgree(t *testing.T) {
	reqs := []Request{
		{Kind: KindStatus},
		{Kind: KindPage},
		{Kind: KindRelayCommand, Channel: 2, Level: true},
		{Kind: KindRelayCommand, Channel: 9, Level: false},
	}
	for _, r := range reqs {
		raw, err := Encode(r)
		if err != nil {
			t.Fatalf("Encode(%+v) error = %v", r, err)
		}
		if got := Decode(raw); got != r {
			t.Errorf("Decode(Encode(%+v)) = %+v", r, got)
		}
	}
}
