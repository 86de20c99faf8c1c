package preprocess

import (
	"image"
	"math"
	"runtime"
	"sync"
)

// bilateral smooths src while keeping edges. Neighbours inside a disc of the
// given diameter are weighted by spatial distance and by the L1 colour
// distance to the centre pixel. Borders are clamped. Alpha is copied through.
func bilateral(src *image.NRGBA, diameter int, sigmaColor, sigmaSpace float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	radius := diameter / 2
	if radius < 1 {
		radius = 1
	}

	type offset struct {
		dx, dy int
		weight float64
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	var offsets []offset
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			offsets = append(offsets, offset{dx, dy, math.Exp(r2 * spaceCoeff)})
		}
	}

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	var colorWeight [256 * 3]float64
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	rows := make(chan int, h)
	for y := 0; y < h; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				drow := dst.Pix[y*dst.Stride:]
				for x := 0; x < w; x++ {
					c := src.Pix[y*src.Stride+x*4:]
					cr, cg, cb := int(c[0]), int(c[1]), int(c[2])
					var sr, sg, sb, sw float64
					for _, o := range offsets {
						nx := clampInt(x+o.dx, 0, w-1)
						ny := clampInt(y+o.dy, 0, h-1)
						n := src.Pix[ny*src.Stride+nx*4:]
						nr, ng, nb := int(n[0]), int(n[1]), int(n[2])
						diff := absInt(nr-cr) + absInt(ng-cg) + absInt(nb-cb)
						wt := o.weight * colorWeight[diff]
						sr += float64(nr) * wt
						sg += float64(ng) * wt
						sb += float64(nb) * wt
						sw += wt
					}
					drow[x*4+0] = clampUint8(sr / sw)
					drow[x*4+1] = clampUint8(sg / sw)
					drow[x*4+2] = clampUint8(sb / sw)
					drow[x*4+3] = c[3]
				}
			}
		}()
	}
	wg.Wait()
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
