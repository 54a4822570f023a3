package gid

import (
	"errors"
	"testing"
)

func TestToNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"gid://shopify/Product/123", 123},
		{"gid://shopify/Product/555", 555},
		{"gid://shopify/ProductImage/9007199254740993", 9007199254740993},
		{"prefix/Type/0042", 42},
	}
	for _, tt := range tests {
		got, err := ToNumeric(tt.in)
		if err != nil {
			t.Errorf("ToNumeric(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToNumeric(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToNumericMalformed(t *testing.T) {
	inputs := []string{
		"",
		"123",
		"gid://shopify/Product/",
		"gid://shopify/Product/abc",
		"gid://shopify/Product/12a",
		"gid://shopify/Product/-5",
		"gid://shopify/Product/0",
		"gid://shopify/Product/99999999999999999999",
		"gid://shopify/Product/123?variant=1",
	}
	for _, in := range inputs {
		if _, err := ToNumeric(in); !errors.Is(err, ErrMalformedIdentifier) {
			t.Errorf("ToNumeric(%q) error = %v, want ErrMalformedIdentifier", in, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int64{1, 7, 555, 8123456789, 1<<63 - 1} {
		for _, typ := range []string{ResourceProduct, "Collection", "MediaImage"} {
			p := ToPlatformID(n, typ)
			got, err := ToNumeric(p)
			if err != nil {
				t.Fatalf("ToNumeric(%q): %v", p, err)
			}
			if got != n {
				t.Errorf("round trip %d via %q = %d", n, p, got)
			}
		}
	}
}

func TestToPlatformID(t *testing.T) {
	if got := ToPlatformID(123, ResourceProduct); got != "gid://shopify/Product/123" {
		t.Errorf("unexpected platform ID: %s", got)
	}
}

func TestParseNumeric(t *testing.T) {
	if n, err := ParseNumeric(" 987 "); err != nil || n != 987 {
		t.Errorf("ParseNumeric bare = %d, %v", n, err)
	}
	if n, err := ParseNumeric("gid://shopify/Product/321"); err != nil || n != 321 {
		t.Errorf("ParseNumeric gid = %d, %v", n, err)
	}
	if _, err := ParseNumeric("abc"); !errors.Is(err, ErrMalformedIdentifier) {
		t.Errorf("expected ErrMalformedIdentifier, got %v", err)
	}
}
