package ngram

import "testing"

func TestDetectMagic(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want uint32
		ok   bool
	}{
		{"bigram", []byte{0x4D, 0x52, 0x47, 0x42}, BigramMagic, true},
		{"trigram", []byte{0x43, 0x47, 0x52, 0x54}, TrigramMagic, true},
		{"too short", []byte{0x01, 0x02}, 0, false},
		{"empty", nil, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := DetectMagic(c.data)
			if ok != c.ok {
				t.Fatalf("ok = %v, want %v", ok, c.ok)
			}
			if ok && got != c.want {
				t.Fatalf("magic = %#x, want %#x", got, c.want)
			}
		})
	}
}
