// seehuhn.de/go/pdfrender - render PDF pages to raster images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package function

import (
	"fmt"
	"io"
	"math"

	"seehuhn.de/go/pdf"
)

// Type0 is a sampled function: a table of sample values with multilinear
// interpolation between the samples.
type Type0 struct {
	// Domain defines the valid input ranges as [min0, max0, min1, max1, ...].
	Domain []float64

	// Range defines the valid output ranges as [min0, max0, min1, max1, ...].
	Range []float64

	// Size is the number of samples in each input dimension.
	Size []int

	// BitsPerSample is the number of bits per sample value
	// (1, 2, 4, 8, 12, 16, 24, or 32).
	BitsPerSample int

	// Encode maps inputs to sample table indices as [min0, max0, ...].
	// Default: [0, Size[0]-1, 0, Size[1]-1, ...].
	Encode []float64

	// Decode maps samples to the output range as [min0, max0, ...].
	// Default: same as Range.
	Decode []float64

	// Samples is the packed sample data, most significant bit first.
	Samples []byte
}

// Shape returns the number of input and output values of the function.
func (f *Type0) Shape() (int, int) {
	return len(f.Domain) / 2, len(f.Range) / 2
}

// Apply applies the function to the given input values.
func (f *Type0) Apply(inputs ...float64) []float64 {
	m, n := f.Shape()
	if len(inputs) != m {
		panic(fmt.Sprintf("expected %d inputs, got %d", m, len(inputs)))
	}

	if len(f.Size) < m || len(f.Samples) == 0 {
		// malformed function, map everything to zero
		return make([]float64, n)
	}

	encode := f.Encode
	if encode == nil {
		encode = make([]float64, 2*m)
		for i := range m {
			encode[2*i+1] = float64(f.Size[i] - 1)
		}
	}

	// clip to domain, then map to sample indices
	indices := make([]float64, m)
	for i := range m {
		x := clip(inputs[i], f.Domain[2*i], f.Domain[2*i+1])
		e := interpolate(x, f.Domain[2*i], f.Domain[2*i+1], encode[2*i], encode[2*i+1])
		indices[i] = clip(e, 0, float64(f.Size[i]-1))
	}

	samples := f.interpolateSamples(indices)

	decode := f.Decode
	if decode == nil {
		decode = f.Range
	}

	outputs := make([]float64, n)
	maxSample := float64(uint64(1)<<uint(f.BitsPerSample) - 1)
	for i := range n {
		normalized := samples[i] / maxSample
		y := interpolate(normalized, 0, 1, decode[2*i], decode[2*i+1])
		outputs[i] = clip(y, f.Range[2*i], f.Range[2*i+1])
	}
	return outputs
}

// interpolateSamples performs multilinear interpolation on the sample table.
func (f *Type0) interpolateSamples(indices []float64) []float64 {
	m, n := f.Shape()

	floorIdx := make([]int, m)
	frac := make([]float64, m)
	for i := range m {
		floorIdx[i] = int(math.Floor(indices[i]))
		frac[i] = indices[i] - float64(floorIdx[i])
		if floorIdx[i] >= f.Size[i]-1 && f.Size[i] > 1 {
			floorIdx[i] = f.Size[i] - 2
			frac[i] = 1
		}
	}

	result := make([]float64, n)
	corners := 1 << m
	corner := make([]int, m)
	for c := range corners {
		weight := 1.0
		for dim := range m {
			if c>>dim&1 == 0 {
				corner[dim] = floorIdx[dim]
				weight *= 1 - frac[dim]
			} else {
				corner[dim] = floorIdx[dim] + 1
				weight *= frac[dim]
			}
		}
		if weight == 0 {
			continue
		}
		for dim := range m {
			// single-sample dimensions have no second corner
			if corner[dim] >= f.Size[dim] {
				corner[dim] = f.Size[dim] - 1
			}
		}
		for i := range n {
			result[i] += weight * f.sampleAt(corner, i)
		}
	}
	return result
}

// sampleAt extracts output component i of the sample at the given grid point.
func (f *Type0) sampleAt(indices []int, i int) float64 {
	m, n := f.Shape()

	linear := 0
	stride := 1
	for dim := m - 1; dim >= 0; dim-- {
		linear += indices[dim] * stride
		stride *= f.Size[dim]
	}

	sampleIdx := linear*n + i
	bitOffset := sampleIdx * f.BitsPerSample

	var v uint64
	for bitsLeft := f.BitsPerSample; bitsLeft > 0; {
		byteIdx := bitOffset / 8
		if byteIdx >= len(f.Samples) {
			return 0
		}
		bitInByte := bitOffset % 8
		take := min(8-bitInByte, bitsLeft)
		b := f.Samples[byteIdx] >> uint(8-bitInByte-take) & (1<<uint(take) - 1)
		v = v<<uint(take) | uint64(b)
		bitOffset += take
		bitsLeft -= take
	}
	return float64(v)
}

func readType0(r pdf.Getter, stream *pdf.Stream) (*Type0, error) {
	d := stream.Dict
	domain, err := readFloats(r, d["Domain"])
	if err != nil {
		return nil, err
	}
	rng, err := readFloats(r, d["Range"])
	if err != nil {
		return nil, err
	}
	size, err := readInts(r, d["Size"])
	if err != nil {
		return nil, err
	}
	bits, err := pdf.GetInteger(r, d["BitsPerSample"])
	if err != nil {
		return nil, err
	}

	f := &Type0{
		Domain:        domain,
		Range:         rng,
		Size:          size,
		BitsPerSample: int(bits),
	}

	m, n := f.Shape()
	if m == 0 || n == 0 || len(size) != m {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("inconsistent Type 0 function shape"),
		}
	}
	switch f.BitsPerSample {
	case 1, 2, 4, 8, 12, 16, 24, 32:
		// ok
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("invalid BitsPerSample %d", f.BitsPerSample),
		}
	}
	for i, s := range size {
		if s < 1 {
			return nil, &pdf.MalformedFileError{
				Err: fmt.Errorf("invalid Size[%d] = %d", i, s),
			}
		}
	}

	if obj, ok := d["Encode"]; ok {
		f.Encode, err = readFloats(r, obj)
		if err != nil {
			return nil, err
		}
	}
	if obj, ok := d["Decode"]; ok {
		f.Decode, err = readFloats(r, obj)
		if err != nil {
			return nil, err
		}
	}

	body, err := pdf.DecodeStream(r, stream, 0)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	totalSamples := 1
	for _, s := range size {
		totalSamples *= s
	}
	numBits := totalSamples * n * f.BitsPerSample
	f.Samples = make([]byte, (numBits+7)/8)
	if _, err := io.ReadFull(body, f.Samples); err != nil {
		return nil, err
	}

	return f, nil
}
