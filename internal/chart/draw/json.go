package draw

import "encoding/json"

// Every shape encodes its kind next to its fields so clients can dispatch.

func (g Group) MarshalJSON() ([]byte, error) {
	type plain Group
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindGroup, plain(g)})
}

func (p Path) MarshalJSON() ([]byte, error) {
	type plain Path
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindPath, plain(p)})
}

func (l Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindLine, plain(l)})
}

func (c Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindCircle, plain(c)})
}

func (r Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindRect, plain(r)})
}

func (t Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindText, plain(t)})
}
