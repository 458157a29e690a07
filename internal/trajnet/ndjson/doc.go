// Package ndjson owns the scene file codec.
//
// A scene file is line-delimited JSON. Each line is either a scene entry
//
//	{"scene": {"id": 0, "p": 12, "s": 100, "e": 300, "fps": 2.5, "tag": [4, [1]]}}
//
// or a track entry
//
//	{"track": {"f": 100, "p": 12, "x": 1.25, "y": -0.5}}
//
// Scene entries come first. Track entries follow sorted by frame then
// pedestrian, each (pedestrian, frame) row appearing once even when it
// belongs to several overlapping scenes. An uncategorised scene has tag 0.
//
// Dependency rule: ndjson may depend on record and fsutil only.
package ndjson
