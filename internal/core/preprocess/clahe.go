package preprocess

import (
	"image"
	"image/color"
	"math"
)

// equalizeLuma applies contrast-limited adaptive histogram equalisation to the
// luma channel of src and recomposes RGB with the original chroma and alpha.
// src must have its origin at (0, 0).
func equalizeLuma(src *image.NRGBA, clipLimit float64, grid int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	luma := make([]uint8, w*h)
	cb := make([]uint8, w*h)
	cr := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			luma[y*w+x], cb[y*w+x], cr[y*w+x] = color.RGBToYCbCr(p[0], p[1], p[2])
		}
	}

	eq := clahe(luma, w, h, clipLimit, grid)

	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			r, g, bl := color.YCbCrToRGB(eq[i], cb[i], cr[i])
			drow[x*4+0] = r
			drow[x*4+1] = g
			drow[x*4+2] = bl
			drow[x*4+3] = srow[x*4+3]
		}
	}
	return dst
}

// clahe equalises an 8-bit plane tile by tile, clipping each tile histogram at
// clipLimit times its mean bin height and blending neighbouring tile mappings
// bilinearly.
func clahe(plane []uint8, w, h int, clipLimit float64, grid int) []uint8 {
	tilesX, tilesY := grid, grid
	if tilesX > w {
		tilesX = w
	}
	if tilesY > h {
		tilesY = h
	}
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY
	// Ceil division can leave trailing tiles empty on small planes.
	tilesX = (w + tileW - 1) / tileW
	tilesY = (h + tileH - 1) / tileH

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			luts[ty*tilesX+tx] = tileLUT(plane, w, x0, y0, x1, y1, clipLimit)
		}
	}

	out := make([]uint8, len(plane))
	for y := 0; y < h; y++ {
		fy := float64(y)/float64(tileH) - 0.5
		ty1 := int(math.Floor(fy))
		ya := fy - float64(ty1)
		ty2 := ty1 + 1
		ty1 = max(ty1, 0)
		ty2 = min(ty2, tilesY-1)
		for x := 0; x < w; x++ {
			fx := float64(x)/float64(tileW) - 0.5
			tx1 := int(math.Floor(fx))
			xa := fx - float64(tx1)
			tx2 := tx1 + 1
			tx1 = max(tx1, 0)
			tx2 = min(tx2, tilesX-1)

			v := plane[y*w+x]
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bot := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			out[y*w+x] = clampUint8(top*(1-ya) + bot*ya)
		}
	}
	return out
}

func tileLUT(plane []uint8, stride, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for _, v := range plane[y*stride+x0 : y*stride+x1] {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	if clipLimit > 0 {
		limit := max(int(clipLimit*float64(area)/256), 1)
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		batch := excess / 256
		residual := excess - batch*256
		for i := range hist {
			hist[i] += batch
		}
		if residual > 0 {
			step := max(256/residual, 1)
			for i := 0; i < 256 && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [256]uint8
	scale := 255.0 / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = clampUint8(float64(sum) * scale)
	}
	return lut
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
