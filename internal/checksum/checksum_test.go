package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestMatches(t *testing.T) {
	data := []byte("note body")
	if !Matches(data, Sum(data)) {
		t.Error("expected match for own digest")
	}
	if Matches(data, "") {
		t.Error("empty sum must not match")
	}
	if Matches([]byte("other"), Sum(data)) {
		t.Error("different content must not match")
	}
}
