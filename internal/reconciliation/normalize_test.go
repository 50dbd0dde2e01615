package reconciliation

import "testing"

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"г. Тюмень, улица Ленина 39/3", "тюмень, ул ленина, 39"},
		{"ТЮМЕНЬ, пр-т Победы 16а-1, офис 4", "тюмень, пр-кт победы, 16а"},
		{"Тюмень, ул Мира 10 корп 2", "тюмень, ул мира, 10"},
		{"Тюмень, Москва, Тверская 5", "москва, тверская, 5"},
		{"Тюмень; ул Республики 88: оф 3", "тюмень, ул республики, 88"},
		{"Тюмень, мкрн Ямальский-2, стр 1", "тюмень, мкр ямальский-2"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeAddress(tc.raw); got != tc.want {
			t.Fatalf("NormalizeAddress(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeAddressStable(t *testing.T) {
	variants := []string{
		"Тюмень, ул. Ленина 39/3",
		"г Тюмень, улица Ленина, 39/4",
		"тюмень,ул ленина 39",
	}
	want := "тюмень, ул ленина, 39"
	for _, raw := range variants {
		if got := NormalizeAddress(raw); got != want {
			t.Fatalf("NormalizeAddress(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestBaseAddr(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{"тюмень, ул ленина, 39/3", "тюмень, ул ленина, 39"},
		{"тюмень, ул ленина, 39 к 2", "тюмень, ул ленина, 39"},
		{"тюмень, ул ленина, 39", "тюмень, ул ленина, 39"},
	}
	for _, tc := range cases {
		if got := baseAddr(tc.addr); got != tc.want {
			t.Fatalf("baseAddr(%q) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}
