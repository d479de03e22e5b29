package event

import (
	"bytes"
	"fmt"
	"testing"

	"renote.lol/chk"
	"renote.lol/hex"
	"renote.lol/kind"
	"renote.lol/p256k"
	"renote.lol/tag"
	"renote.lol/tags"
	"renote.lol/timestamp"
)

func signedTestEvent(t *testing.T) (*T, *p256k.Signer) {
	t.Helper()
	s := &p256k.Signer{}
	if err := s.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	ev := &T{
		CreatedAt: timestamp.FromUnix(1672068534),
		Kind:      kind.TextNote,
		Tags:      tags.New(tag.New("t", "test"), tag.New("client", "renote")),
		Content:   []byte("hello\nworld \"quoted\""),
	}
	if err := ev.Sign(s); chk.E(err) {
		t.Fatal(err)
	}
	return ev, s
}

func TestSignVerify(t *testing.T) {
	ev, s := signedTestEvent(t)
	if !bytes.Equal(ev.Pubkey, s.Pub()) {
		t.Fatal("Sign did not set the pubkey from the signer")
	}
	if !ev.CheckID() {
		t.Fatal("ID does not match canonical hash after signing")
	}
	valid, err := ev.Verify()
	if chk.E(err) {
		t.Fatal(err)
	}
	if !valid {
		t.Fatal("signature did not verify")
	}
	// tamper with the content, verification must fail
	ev.Content = append(ev.Content, '!')
	if valid, _ = ev.Verify(); valid {
		t.Fatal("tampered event verified")
	}
}

func TestCanonicalForm(t *testing.T) {
	ev, _ := signedTestEvent(t)
	want := fmt.Sprintf(`[0,"%s",%d,%d,%s,"%s"]`,
		hex.Enc(ev.Pubkey), ev.CreatedAt.I64(), ev.Kind.K,
		ev.Tags.Marshal(nil), `hello\nworld \"quoted\"`)
	got := string(ev.ToCanonical(nil))
	if got != want {
		t.Fatalf("canonical form\n got %s\nwant %s", got, want)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	ev, _ := signedTestEvent(t)
	b := ev.Marshal(nil)
	ev2 := &T{}
	rem, err := ev2.Unmarshal(append([]byte{}, b...))
	if chk.E(err) {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	if len(rem) != 0 {
		t.Fatalf("remainder after decode: %q", rem)
	}
	if !bytes.Equal(ev2.Marshal(nil), b) {
		t.Fatalf("round trip mismatch\n got %s\nwant %s", ev2.Marshal(nil), b)
	}
	valid, err := ev2.Verify()
	if chk.E(err) {
		t.Fatal(err)
	}
	if !valid {
		t.Fatal("decoded event does not verify")
	}
}

func TestUnmarshalKnownVector(t *testing.T) {
	// a syntactically complete event with out of order keys
	raw := []byte(`{"content":"x","created_at":1700000001,"id":"` +
		"5ce4e8dcd993ee0c0278babce2bc23f5ad413291b3aa4e3fe9ab4e0a04d7d736" +
		`","kind":1,"pubkey":"` +
		"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798" +
		`","sig":"` +
		"e7a95f85fe57dd7ff219be8e0e1e6c2a59ab3c16f12dab9c9a0b3ad8cd411bfdecbb61e262aa9ca6295fcd2f1fd7e0e04f216be887a4e864fa4ca24e0f14acaf" +
		`","tags":[["p","79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"]]}`)
	ev := &T{}
	rem, err := ev.Unmarshal(append([]byte{}, raw...))
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(rem) != 0 {
		t.Fatalf("remainder %q", rem)
	}
	if ev.Kind.K != 1 || string(ev.Content) != "x" ||
		ev.CreatedAt.I64() != 1700000001 {
		t.Fatalf("decoded wrong fields: %s", ev.Serialize())
	}
	if ev.Tags.Len() != 1 || ev.Tags.N(0).Len() != 2 {
		t.Fatalf("decoded wrong tags: %s", ev.Tags.Marshal(nil))
	}
}

func TestCloneRebrand(t *testing.T) {
	src, _ := signedTestEvent(t)
	dst := &p256k.Signer{}
	if err := dst.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	clone := &T{
		CreatedAt: timestamp.Now(),
		Kind:      src.Kind,
		Tags:      src.Tags,
		Content:   src.Content,
	}
	if err := clone.Sign(dst); chk.E(err) {
		t.Fatal(err)
	}
	if bytes.Equal(clone.ID, src.ID) {
		t.Fatal("clone kept the source ID")
	}
	if bytes.Equal(clone.Pubkey, src.Pubkey) {
		t.Fatal("clone kept the source author")
	}
	if !bytes.Equal(clone.Content, src.Content) ||
		!clone.Tags.Equal(src.Tags) || !clone.Kind.Equal(src.Kind) {
		t.Fatal("clone changed the content fields")
	}
	valid, err := clone.Verify()
	if chk.E(err) {
		t.Fatal(err)
	}
	if !valid {
		t.Fatal("clone does not verify")
	}
}
