package wavsink

import "time"

// GenTimestamp renders the watermark prefix prepended to the first block
// of a new recording: sentinel bytes 0x81 0x82, fifteen digit-encoded
// samples for the UTC timestamp, then sentinel bytes 0x83 0x84. Each digit
// d is encoded as the sample value 127-5+d (i.e. 122+d), matching the
// original recorder's gen_timestamp byte-for-byte. now should already be
// backdated by the caller to the start of the block being watermarked
// (the original subtracts the block's own playback duration from
// time.Now() before rendering).
//
// Fields, in order: year thousands/hundreds/tens/units, month (one
// sample, unlike every other two-digit field), day tens/units, hour
// tens/units, minute tens/units, second tens/units, then the first two
// decimal digits of the microsecond field.
func GenTimestamp(now time.Time) []int16 {
	u := now.UTC()
	year := u.Year()
	micros := u.Nanosecond() / 1000
	digits := []int{
		year / 1000 % 10, year / 100 % 10, year / 10 % 10, year % 10,
		int(u.Month()),
		u.Day() / 10, u.Day() % 10,
		u.Hour() / 10, u.Hour() % 10,
		u.Minute() / 10, u.Minute() % 10,
		u.Second() / 10, u.Second() % 10,
		micros % 1000000 / 100000, micros % 100000 / 10000,
	}

	out := make([]int16, 0, len(digits)+4)
	out = append(out, 0x81, 0x82)
	for _, d := range digits {
		out = append(out, int16(127-5+d))
	}
	out = append(out, 0x83, 0x84)
	return out
}
