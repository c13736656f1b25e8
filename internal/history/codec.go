package history

import (
	"time"

	"github.com/fxamacker/cbor/v2"
)

// payload is the plaintext layout sealed into a record. Integer keys keep it
// compact; core deterministic encoding keeps it byte-stable.
type payload struct {
	Latitude  float64 `cbor:"1,keyasint"`
	Longitude float64 `cbor:"2,keyasint"`
	Timestamp int64   `cbor:"3,keyasint"`
	Accuracy  float64 `cbor:"4,keyasint,omitempty"`
	Speed     float64 `cbor:"5,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("history: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("history: CBOR decoder initialization failed: " + err.Error())
	}
}

func encodePoint(p Point) ([]byte, error) {
	return encMode.Marshal(payload{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: p.Timestamp.UnixNano(),
		Accuracy:  p.Accuracy,
		Speed:     p.Speed,
	})
}

func decodePoint(data []byte) (Point, error) {
	var pl payload
	if err := decMode.Unmarshal(data, &pl); err != nil {
		return Point{}, err
	}
	return Point{
		Latitude:  pl.Latitude,
		Longitude: pl.Longitude,
		Accuracy:  pl.Accuracy,
		Speed:     pl.Speed,
		Timestamp: time.Unix(0, pl.Timestamp).UTC(),
	}, nil
}
