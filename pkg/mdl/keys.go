package mdl

import (
	gomath "math"
	"slices"
	"strings"

	"cogentcore.org/core/base/ordmap"
)

// channelInfo describes a known keyed channel.
type channelInfo struct {
	dims int
	prec int
}

// channels lists the keyed channels with a fixed arity. Anything else is
// accepted with the arity found in the file.
var channels = map[string]channelInfo{
	"position":       {3, precTransform},
	"orientation":    {4, precTransform},
	"scale":          {1, precTransform},
	"selfillumcolor": {3, precColor},
	"color":          {3, precColor},
	"alpha":          {1, precTransform},
	"radius":         {1, precTransform},
	"multiplier":     {1, precTransform},
	"birthrate":      {1, precTransform},
}

// Channel names.
const (
	ChannelPosition    = "position"
	ChannelOrientation = "orientation"
	ChannelScale       = "scale"
	ChannelSelfIllum   = "selfillumcolor"
	ChannelColor       = "color"
	ChannelAlpha       = "alpha"
	ChannelRadius      = "radius"
	ChannelBirthrate   = "birthrate"
)

func channelPrecision(channel string) int {
	if c, ok := channels[channel]; ok {
		return c.prec
	}
	return precTransform
}

// FrameForTime converts seconds to a frame number.
func FrameForTime(t float64, fps int) int {
	return int(gomath.Round(float64(fps) * t))
}

// TimeForFrame converts a frame number to seconds, rounded to 7 decimals.
func TimeForFrame(frame, fps int) float64 {
	return roundTo(float64(frame)/float64(fps), timeDigits)
}

// Sample is one host key on a single component of a channel.
type Sample struct {
	Time  float64 // seconds
	Value float64
}

// Curve is a host animation curve driving one component of a channel.
// For orientation, axis 0 is the angle and axes 1-3 are x, y, z.
type Curve struct {
	Channel string
	Axis    int
	Samples []Sample
}

// CurveSource groups the curves of one host source, such as an object's
// transform action or its material's action.
type CurveSource struct {
	Name   string
	Curves []Curve
}

// Consolidate merges scattered per-axis curves into one track per channel.
//
// Within a source, every sample that lands on the same (channel, frame, axis)
// is added to the value already there. Across sources, a later source's
// (channel, frame) tuple replaces the earlier one as a whole. Tracks come out
// in first-seen channel order with frames ascending.
func Consolidate(sources []CurveSource, fps int) *ordmap.Map[string, *Track] {
	out := ordmap.New[string, *Track]()
	for _, src := range sources {
		acc := ordmap.New[string, map[int][]float64]()
		dims := map[string]int{}
		for _, c := range src.Curves {
			ch := strings.ToLower(c.Channel)
			d := max(dims[ch], c.Axis+1)
			if info, ok := channels[ch]; ok {
				d = max(d, info.dims)
			}
			dims[ch] = d
			if _, ok := acc.ValueByKeyTry(ch); !ok {
				acc.Add(ch, map[int][]float64{})
			}
		}
		for _, c := range src.Curves {
			if c.Axis < 0 {
				continue
			}
			ch := strings.ToLower(c.Channel)
			frames := acc.ValueByKey(ch)
			for _, s := range c.Samples {
				f := FrameForTime(s.Time, fps)
				vals, ok := frames[f]
				if !ok {
					vals = make([]float64, dims[ch])
					frames[f] = vals
				}
				vals[c.Axis] += s.Value
			}
		}
		for _, kv := range acc.Order {
			t, ok := out.ValueByKeyTry(kv.Key)
			if !ok {
				t = NewTrack(kv.Key)
				out.Add(kv.Key, t)
			}
			keys := make([]int, 0, len(kv.Value))
			for f := range kv.Value {
				keys = append(keys, f)
			}
			slices.Sort(keys)
			for _, f := range keys {
				t.Set(f, kv.Value[f]...)
			}
		}
	}
	for _, kv := range out.Order {
		kv.Value.SortFrames()
	}
	return out
}

// Curves splits the track back into one curve per component.
func (t *Track) Curves(fps int) []Curve {
	dims := t.Dims()
	out := make([]Curve, dims)
	for axis := range out {
		out[axis] = Curve{Channel: t.Channel, Axis: axis}
	}
	for _, kv := range t.Keys.Order {
		time := TimeForFrame(kv.Key, fps)
		for axis, v := range kv.Value {
			out[axis].Samples = append(out[axis].Samples, Sample{Time: time, Value: v})
		}
	}
	return out
}

// toDisk reorders a track value into file order. Orientation is held as
// [angle, x, y, z] and written as x y z angle.
func toDisk(channel string, v []float64) []float64 {
	if channel == ChannelOrientation && len(v) == 4 {
		return []float64{v[1], v[2], v[3], v[0]}
	}
	return v
}

// fromDisk is the inverse of toDisk.
func fromDisk(channel string, v []float64) []float64 {
	if channel == ChannelOrientation && len(v) == 4 {
		return []float64{v[3], v[0], v[1], v[2]}
	}
	return v
}
