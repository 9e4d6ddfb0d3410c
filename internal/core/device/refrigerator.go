package device

import (
	"embed"
	"fmt"
	"math/rand/v2"
	"path"
)

const RefrigeratorTemperature = 4.0

//go:embed pictures/fridge-*.png
var pictures embed.FS

// RefrigeratorPictures are the interior shots, in the order pick indexes them.
var RefrigeratorPictures = []string{"fridge-empty.png", "fridge-full.png", "fridge-half.png"}

// Refrigerator has a fixed temperature and a camera looking at its shelves.
type Refrigerator struct {
	pick func(n int) int
}

// NewRefrigerator builds a refrigerator. pick returns an index in [0,n);
// nil uses math/rand.
func NewRefrigerator(pick func(n int) int) *Refrigerator {
	if pick == nil {
		pick = rand.IntN
	}
	return &Refrigerator{pick: pick}
}

func (r *Refrigerator) Temperature() float64 {
	return RefrigeratorTemperature
}

// InternalPicture returns the PNG bytes of one of the interior shots.
func (r *Refrigerator) InternalPicture() ([]byte, error) {
	name := RefrigeratorPictures[r.pick(len(RefrigeratorPictures))]
	b, err := pictures.ReadFile(path.Join("pictures", name))
	if err != nil {
		return nil, fmt.Errorf("refrigerator picture %s: %w", name, err)
	}
	return b, nil
}
