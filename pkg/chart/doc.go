// Package chart turns a person store with computed generations into a
// renderable chart: display units, positioned boxes, and connector
// descriptors.
//
// The package is the renderer-facing half of the pipeline. It decides
// which people merge into couple units, where every unit's box sits in
// layout units, and which parent-child and spouse connectors to draw,
// each exactly once. What a connector looks like (straight, curved,
// stepped) is the renderer's business; the chart only fixes the anchor
// points.
//
// All computation is deterministic: units follow store insertion order,
// serialized nodes are sorted by ID, and connector order follows unit
// order.
package chart
