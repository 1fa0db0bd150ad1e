package cube

import (
	"math/big"
	"testing"
)

func TestUint128RoundTrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(1700000000123456789),
	}
	for _, want := range cases {
		var buf [16]byte
		putUint128LE(buf[:], want)
		got := getUint128LE(buf[:])
		if got.Cmp(want) != 0 {
			t.Errorf("uint128 round trip: want %v got %v", want, got)
		}
	}
}

func TestEncodeDecodeFrame(t *testing.T) {
	ts := big.NewInt(123456789)
	frame, err := encodeFrame(ts, 7, "k", "v")
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}

	// S2: header(16) + len_total(4) + payload(16+8+2+2+1+1=30) + crc(4) = 54
	// frame alone (without header) is len_total(4)+payload(30)+crc(4) = 38
	wantFrameLen := 4 + (16 + 8 + 2 + 2 + 1 + 1) + 4
	if len(frame) != wantFrameLen {
		t.Fatalf("frame length = %d, want %d", len(frame), wantFrameLen)
	}

	body := frame[lenPrefixWidth:]
	payload, err := verifyAndSplit(body)
	if err != nil {
		t.Fatalf("verifyAndSplit: %v", err)
	}

	gotTS, gotID, ph, no, err := decodePayload(payload)
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if gotTS.Cmp(ts) != 0 || gotID != 7 || ph != "k" || no != "v" {
		t.Fatalf("decoded (%v,%d,%q,%q), want (%v,7,\"k\",\"v\")", gotTS, gotID, ph, no, ts)
	}
}

func TestEncodeFrameRejectsOversizedStrings(t *testing.T) {
	huge := make([]byte, 1<<16)
	_, err := encodeFrame(big.NewInt(1), 1, string(huge), "")
	if err == nil {
		t.Fatal("expected error for oversized phenomenon")
	}
}

func TestVerifyAndSplitDetectsCRCMismatch(t *testing.T) {
	frame, err := encodeFrame(big.NewInt(1), 1, "a", "b")
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}
	body := frame[lenPrefixWidth:]
	// flip a payload bit
	body[0] ^= 0x01
	if _, err := verifyAndSplit(body); err == nil {
		t.Fatal("expected crc mismatch error")
	}
}
