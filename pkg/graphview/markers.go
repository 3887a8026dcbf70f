package graphview

import (
	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/scene"
)

// markerSizes are the three arrow-head size classes, suffixing the marker id.
var markerSizes = []struct {
	suffix graph.MarkerSize
	width  float64
}{
	{graph.MarkerDefault, 6},
	{graph.MarkerLarge, 12},
	{graph.MarkerXL, 18},
}

// markerDefs builds the reusable arrow-head definitions: an end and a start
// orientation for each size class, with ids following the
// {start|end}{""|large|xl} pattern edges reference via url(#id).
func markerDefs() *scene.Node {
	kids := make([]*scene.Node, 0, 2*len(markerSizes))
	for _, size := range markerSizes {
		kids = append(kids,
			marker("end"+string(size.suffix), size.width, false),
			marker("start"+string(size.suffix), size.width, true),
		)
	}
	return scene.Element("defs", nil, kids...)
}

func marker(id string, width float64, reversed bool) *scene.Node {
	path := "M0,-5L10,0L0,5" // arrow head pointing along the line
	orient := "auto"
	if reversed {
		orient = "auto-start-reverse"
	}
	return scene.Element("marker", scene.Attrs{
		"id":           id,
		"viewBox":      "0 -5 10 10",
		"refX":         "10",
		"markerWidth":  fmtCoord(width),
		"markerHeight": fmtCoord(width),
		"orient":       orient,
	}, scene.Element("path", scene.Attrs{"d": path}))
}

// edgeMarkers returns the marker-start and marker-end attribute values for an
// edge, or empty strings when the direction draws no head at that end.
func edgeMarkers(e *graph.Edge) (start, end string) {
	suffix := string(e.MarkerSize)
	switch e.Directed {
	case graph.Forwards:
		return "", "url(#end" + suffix + ")"
	case graph.Backwards:
		return "url(#start" + suffix + ")", ""
	case graph.Both:
		return "url(#start" + suffix + ")", "url(#end" + suffix + ")"
	default:
		return "", ""
	}
}
