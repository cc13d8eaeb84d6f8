package measure

import (
	"errors"
	"strconv"
)

// Temperature is a reading in tenths of a degree.
type Temperature int32

const (
	MinTemperature Temperature = -999
	MaxTemperature Temperature = 999
)

var ErrMalformedTemperature = errors.New("malformed temperature")

// ParseTemperature parses b, which must match -?\d{1,2}\.\d, into tenths.
func ParseTemperature(b []byte) (Temperature, error) {
	neg := false
	if len(b) > 0 && b[0] == '-' {
		neg = true
		b = b[1:]
	}

	var t Temperature
	switch {
	case len(b) == 3 && isDigit(b[0]) && b[1] == '.' && isDigit(b[2]):
		t = Temperature(b[0]-'0')*10 + Temperature(b[2]-'0')
	case len(b) == 4 && isDigit(b[0]) && isDigit(b[1]) && b[2] == '.' && isDigit(b[3]):
		t = Temperature(b[0]-'0')*100 + Temperature(b[1]-'0')*10 + Temperature(b[3]-'0')
	default:
		return 0, ErrMalformedTemperature
	}

	if neg {
		t = -t
	}

	if t < MinTemperature || t > MaxTemperature {
		return 0, ErrMalformedTemperature
	}

	return t, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// AppendTenths appends t with exactly one fractional digit. Zero is always
// rendered as "0.0", never "-0.0".
func AppendTenths(dst []byte, t Temperature) []byte {
	v := int64(t)
	if v < 0 {
		dst = append(dst, '-')
		v = -v
	}

	dst = strconv.AppendInt(dst, v/10, 10)
	return append(dst, '.', byte('0'+v%10))
}

func (t Temperature) String() string {
	return string(AppendTenths(make([]byte, 0, 8), t))
}
