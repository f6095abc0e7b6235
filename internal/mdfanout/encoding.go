package mdfanout

import "math"

func fixed64FromFloat64(f float64) uint64 { return math.Float64bits(f) }
func float64FromFixed64(v uint64) float64 { return math.Float64frombits(v) }

func zigzag32(v int32) int32 { return (v << 1) ^ (v >> 31) }
func unzigzag32(v uint64) int32 {
	u := uint32(v)
	return int32(u>>1) ^ -int32(u&1)
}

func zigzag64(v int64) int64 { return (v << 1) ^ (v >> 63) }
func unzigzag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
