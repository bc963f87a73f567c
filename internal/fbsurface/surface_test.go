package fbsurface

import "testing"

func TestPutPixelAndClear(t *testing.T) {
	const w, h, line = 4, 3, 4 * 4
	mem := make([]byte, line*h)
	s := New(mem, w, h, 32, line)

	s.Clear(0x00112233)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*line + x*4
			got := uint32(mem[off]) | uint32(mem[off+1])<<8 | uint32(mem[off+2])<<16 | uint32(mem[off+3])<<24
			if got != 0x00112233 {
				t.Fatalf("pixel(%d,%d) = %#08x after Clear, want 0x00112233", x, y, got)
			}
		}
	}

	s.PutPixel(1, 1, 0x00FF00FF)
	off := 1*line + 1*4
	got := uint32(mem[off]) | uint32(mem[off+1])<<8 | uint32(mem[off+2])<<16 | uint32(mem[off+3])<<24
	if got != 0x00FF00FF {
		t.Fatalf("pixel(1,1) = %#08x, want 0x00FF00FF", got)
	}
}

func TestPutPixelOutOfBoundsIgnored(t *testing.T) {
	const w, h, line = 2, 2, 2 * 4
	mem := make([]byte, line*h)
	s := New(mem, w, h, 32, line)

	s.PutPixel(-1, 0, 0xFFFFFFFF)
	s.PutPixel(0, -1, 0xFFFFFFFF)
	s.PutPixel(w, 0, 0xFFFFFFFF)
	s.PutPixel(0, h, 0xFFFFFFFF)

	for _, b := range mem {
		if b != 0 {
			t.Fatalf("out-of-bounds PutPixel wrote to the surface")
		}
	}
}
