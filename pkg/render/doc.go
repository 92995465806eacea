// Package render turns solved linkage positions and sweep records into
// artifacts.
//
// # Formats
//
//   - SVG: [RenderPositionSVG] draws one assembled position; [RenderSweepSVG]
//     draws the coupler-point trace of a sweep with its events marked.
//   - JSON: [RenderSweepJSON] exports the full record with its summary.
//   - CSV: [RenderSweepCSV] writes one row per converged sample.
//   - PNG and PDF: [ToPNG] and [ToPDF] convert any SVG using the external
//     rsvg-convert tool (librsvg).
//
// Render functions are pure: the same inputs always produce the same bytes,
// which lets the pipeline cache artifacts by content key.
package render
