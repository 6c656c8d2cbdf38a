package slideshow

import (
	"strconv"
	"time"
)

const (
	DefaultInterval    = 3000 * time.Millisecond
	TransitionDuration = 1200 * time.Millisecond
)

// Transition is the CSS transition shared by every layer.
var Transition = "transform " + ms(TransitionDuration) + " ease, opacity " + ms(TransitionDuration) + " ease"

func ms(d time.Duration) string { return strconv.FormatInt(d.Milliseconds(), 10) + "ms" }

// Layer is the visual state of one slide for a given current index.
type Layer struct {
	Index     int    `json:"index"`
	Offset    int    `json:"offset"`
	Transform string `json:"transform"`
	Opacity   int    `json:"opacity"`
}

// LayerAt places slide index relative to current: the active slide sits at
// 0%, later slides queue to the right and earlier ones to the left. Only the
// active slide is visible.
func LayerAt(index, current int) Layer {
	off := index - current
	l := Layer{
		Index:     index,
		Offset:    off,
		Transform: "translateX(" + strconv.Itoa(off*100) + "%)",
	}
	if off == 0 {
		l.Opacity = 1
	}
	return l
}

// Layers returns LayerAt for every slide in order.
func Layers(count, current int) []Layer {
	if count <= 0 {
		return nil
	}
	out := make([]Layer, count)
	for i := range out {
		out[i] = LayerAt(i, current)
	}
	return out
}
