package factory

import "testing"

func TestNewSink(t *testing.T) {
	s, err := NewSink("sqlite://:memory:")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = NewSink(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	if _, err := NewSink(""); err == nil {
		t.Error("empty DSN accepted")
	}
	if _, err := NewSink("redis://localhost"); err == nil {
		t.Error("unsupported scheme accepted")
	}
}
