// Package fbsurface provides pixel plotting and full-surface clearing
// against a memory-mapped linear framebuffer. Opening the device node and
// issuing the FBIOGET_*SCREENINFO ioctls is the out-of-scope external
// collaborator wired from cmd/fbterm; this package only needs the mapped
// bytes and the geometry those ioctls report.
package fbsurface

import "golang.org/x/sys/unix"

// Surface is a memory-mapped 32-bpp linear framebuffer.
type Surface struct {
	mem           []byte
	width, height int
	bitsPerPixel  int
	lineLength    int
}

// New wraps an already-mapped framebuffer region. width/height are in
// pixels, bitsPerPixel is the device's reported color depth, and
// lineLength is bytes per row (which may exceed width*bpp/8 due to
// padding).
func New(mem []byte, width, height, bitsPerPixel, lineLength int) *Surface {
	return &Surface{mem: mem, width: width, height: height, bitsPerPixel: bitsPerPixel, lineLength: lineLength}
}

// Open mmaps fd (an already-opened framebuffer device) for smemLen bytes,
// read-write, and wraps it as a Surface.
func Open(fd int, smemLen, width, height, bitsPerPixel, lineLength int) (*Surface, error) {
	mem, err := unix.Mmap(fd, 0, smemLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return New(mem, width, height, bitsPerPixel, lineLength), nil
}

// Close unmaps the framebuffer.
func (s *Surface) Close() error {
	return unix.Munmap(s.mem)
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// PutPixel writes a 32-bit little-endian word at the pixel (x, y).
// Out-of-bounds coordinates, and non-32-bpp surfaces, are silently
// ignored — this surface only guarantees correctness for 32-bpp linear
// framebuffers.
func (s *Surface) PutPixel(x, y int, rgb uint32) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height || s.bitsPerPixel != 32 {
		return
	}
	off := y*s.lineLength + x*(s.bitsPerPixel/8)
	if off < 0 || off+4 > len(s.mem) {
		return
	}
	s.mem[off+0] = byte(rgb)
	s.mem[off+1] = byte(rgb >> 8)
	s.mem[off+2] = byte(rgb >> 16)
	s.mem[off+3] = byte(rgb >> 24)
}

// Clear paints the whole surface with rgb using bulk writes row by row.
func (s *Surface) Clear(rgb uint32) {
	if s.bitsPerPixel != 32 {
		return
	}
	var px [4]byte
	px[0] = byte(rgb)
	px[1] = byte(rgb >> 8)
	px[2] = byte(rgb >> 16)
	px[3] = byte(rgb >> 24)

	for y := 0; y < s.height; y++ {
		rowStart := y * s.lineLength
		if rowStart+s.width*4 > len(s.mem) {
			break
		}
		row := s.mem[rowStart : rowStart+s.width*4]
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+4], px[:])
		}
	}
}
