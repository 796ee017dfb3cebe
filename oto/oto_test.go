package oto_test

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/oto"
)

func TestFloatBufferToBytes(t *testing.T) {
	b := oto.FloatBufferToBytes(tetrachord.AudioBuffer{{0.5, -1}, {0, 2}}, nil)
	if len(b) != 16 {
		t.Fatalf("%v bytes, want 16", len(b))
	}
	want := []float32{0.5, -1, 0, 2}
	for i, w := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])); got != w {
			t.Errorf("sample %v = %v, want %v", i, got, w)
		}
	}
}

func TestReader(t *testing.T) {
	buffer := make(tetrachord.AudioBuffer, 1000)
	for i := range buffer {
		buffer[i] = [2]float32{float32(i), -float32(i)}
	}
	b, err := io.ReadAll(oto.NewReader(buffer.Source()))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(b) != len(buffer)*8 {
		t.Fatalf("read %v bytes, want %v", len(b), len(buffer)*8)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[999*8+4:])); got != -999 {
		t.Errorf("last right sample = %v, want -999", got)
	}
	// reads smaller than a frame
	small := make([]byte, 3)
	reader := oto.NewReader(tetrachord.AudioBuffer{{1, 1}}.Source())
	total := 0
	for {
		n, err := reader.Read(small)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}
	if total != 8 {
		t.Errorf("read %v bytes in chunks of 3, want 8", total)
	}
}
